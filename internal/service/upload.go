package service

import (
	"context"
	a "devfolio/portfolio-api/aws"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/pkg/util"
	"devfolio/portfolio-api/pkg/validators"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

const minMultipartSize = 12 << 20

// Folders on the image host
const (
	AvatarFolder = "AVATARS"
	ResumeFolder = "MY_RESUME"
)

// ImageHost stores user uploaded files and hands back where they live
type ImageHost interface {
	Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (model.Asset, error)
	Delete(ctx context.Context, publicID string) error
}

type S3ImageHost struct {
	S3           *a.S3Client
	MaxSize      int64
	AllowedTypes []string
}

func NewS3ImageHost(s *a.S3Client, maxSize int64, allowed []string) *S3ImageHost {
	return &S3ImageHost{
		S3:           s,
		MaxSize:      maxSize,
		AllowedTypes: allowed,
	}
}

// Upload validates fh and stores it under folder with a random name. Large
// files go through the multipart uploader.
func (h *S3ImageHost) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (model.Asset, error) {
	f, mime, err := validators.FileValidator(fh, h.MaxSize, h.AllowedTypes)
	if err != nil {
		return model.Asset{}, fileError(err)
	}
	defer f.Close()

	key := objectKey(folder, fh.Filename)

	objectInput := &s3.PutObjectInput{
		Bucket:        h.S3.Bucket,
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(fh.Size),
		ContentType:   aws.String(mime),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	}

	if fh.Size > minMultipartSize {
		uploader := manager.NewUploader(h.S3.C, func(u *manager.Uploader) {
			u.Concurrency = 5
			u.PartSize = 6 << 20
		})
		_, err = uploader.Upload(ctx, objectInput)
	} else {
		_, err = h.S3.C.PutObject(ctx, objectInput)
	}
	if err != nil {
		return model.Asset{}, apperror.Dependency("Failed to upload file", fmt.Errorf("failed to upload %s to s3, %w", key, err))
	}

	zap.L().Debug("Uploaded file", zap.String("key", key), zap.Int64("size", fh.Size))

	return model.Asset{
		PublicID: key,
		URL:      h.S3.PublicURL + "/" + key,
	}, nil
}

func (h *S3ImageHost) Delete(ctx context.Context, publicID string) error {
	_, err := h.S3.C.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: h.S3.Bucket,
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from s3, %w", publicID, err)
	}

	return nil
}

func objectKey(folder, filename string) string {
	return folder + "/" + util.RandStr(10) + strings.ToLower(path.Ext(filename))
}

func fileError(err error) error {
	switch {
	case errors.Is(err, validators.ErrNoFile):
		return apperror.Validation("File is required")
	case errors.Is(err, validators.ErrFileTooLarge):
		return apperror.TooLarge("File is too large")
	case errors.Is(err, validators.ErrFileNameTooLong):
		return apperror.Validation("File name is too long")
	case errors.Is(err, validators.ErrFileTypeUnsupported):
		return apperror.Validation("Unsupported file type")
	default:
		return fmt.Errorf("failed to read uploaded file, %w", err)
	}
}
