package validators

import (
	"errors"
	"io"
	"mime/multipart"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

const maxFileNameSize = 255

// FileValidator checks an uploaded file against the size limit and the
// allowed MIME types. The type is sniffed from the content, the client's
// Content-Type header isn't trusted. On success the opened file is returned
// rewound to the start together with its detected MIME type.
func FileValidator(fh *multipart.FileHeader, maxSize int64, allowed []string) (multipart.File, string, error) {
	if fh == nil {
		return nil, "", ErrNoFile
	}

	if len(fh.Filename) > maxFileNameSize {
		return nil, "", ErrFileNameTooLong
	}

	if maxSize > 0 && fh.Size > maxSize {
		return nil, "", ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, "", err
	}

	if len(allowed) > 0 && !slices.ContainsFunc(allowed, func(a string) bool { return mime.Is(a) }) {
		f.Close()
		return nil, "", ErrFileTypeUnsupported
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", err
	}

	return f, mime.String(), nil
}
