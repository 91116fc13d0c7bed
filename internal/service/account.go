package service

import (
	"context"
	"devfolio/portfolio-api/internal/apperror"
	"devfolio/portfolio-api/internal/model"
	"devfolio/portfolio-api/internal/store"
	"devfolio/portfolio-api/pkg/validators"
	"errors"
	"mime/multipart"
	"unicode"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var errInvalidCredentials = apperror.Unauthenticated("Invalid Email or Password.")

type Profile struct {
	FullName     string
	Email        string
	Phone        string
	AboutMe      string
	PortfolioURL string
	GithubURL    string
	InstagramURL string
	TwitterURL   string
	LinkedInURL  string
	FacebookURL  string
}

func (p Profile) update() store.ProfileUpdate {
	return store.ProfileUpdate{
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		AboutMe:      p.AboutMe,
		PortfolioURL: p.PortfolioURL,
		GithubURL:    p.GithubURL,
		InstagramURL: p.InstagramURL,
		TwitterURL:   p.TwitterURL,
		LinkedInURL:  p.LinkedInURL,
		FacebookURL:  p.FacebookURL,
	}
}

type RegisterInput struct {
	Profile
	Password string
	Avatar   *multipart.FileHeader
	Resume   *multipart.FileHeader
}

// ProfileInput carries a profile change. Files are optional, a provided one
// replaces the stored one.
type ProfileInput struct {
	Profile
	Avatar *multipart.FileHeader
	Resume *multipart.FileHeader
}

type Accounts struct {
	Users  *store.UserStore
	Images ImageHost
	// Served by Portfolio. Empty means the first registered user.
	PortfolioUserID string
}

func NewAccounts(users *store.UserStore, images ImageHost, portfolioUserID string) *Accounts {
	return &Accounts{
		Users:           users,
		Images:          images,
		PortfolioUserID: portfolioUserID,
	}
}

// Register validates in, uploads the avatar and resume and creates the user.
// Uploaded files are removed again when the user can't be created.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Avatar == nil || in.Resume == nil {
		return nil, apperror.Validation("Avatar and Resume are required!")
	}

	if in.FullName == "" || in.Email == "" || in.Phone == "" || in.AboutMe == "" || in.PortfolioURL == "" || in.Password == "" {
		return nil, apperror.Validation("Please fill all the required fields!")
	}

	email := validators.NormalizeEmail(in.Email)
	if err := validators.EmailValidator(email); err != nil {
		return nil, invalid(err)
	}

	if err := validators.PasswordValidator(in.Password); err != nil {
		return nil, invalid(err)
	}

	exists, err := a.Users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}

	if exists {
		return nil, apperror.DuplicateEmail()
	}

	avatar, resume, err := a.uploadPair(ctx, in.Avatar, in.Resume)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		FullName:     in.FullName,
		Email:        email,
		Phone:        in.Phone,
		AboutMe:      in.AboutMe,
		PortfolioURL: in.PortfolioURL,
		GithubURL:    in.GithubURL,
		InstagramURL: in.InstagramURL,
		TwitterURL:   in.TwitterURL,
		LinkedInURL:  in.LinkedInURL,
		FacebookURL:  in.FacebookURL,
		Avatar:       avatar,
		Resume:       resume,
	}

	if err := a.Users.Create(ctx, u, in.Password); err != nil {
		a.discard(avatar, resume)
		return nil, err
	}

	zap.L().Info("User registered", zap.String("userID", u.ID))
	return u, nil
}

// uploadPair stores the avatar and resume concurrently. If either upload
// fails the other one is deleted again.
func (a *Accounts) uploadPair(ctx context.Context, avatarFile, resumeFile *multipart.FileHeader) (model.Asset, model.Asset, error) {
	var avatar, resume model.Asset

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		avatar, err = a.Images.Upload(ctx, AvatarFolder, avatarFile)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		resume, err = a.Images.Upload(ctx, ResumeFolder, resumeFile)
		return err
	})

	if err := p.Wait(); err != nil {
		a.discard(avatar, resume)
		return model.Asset{}, model.Asset{}, firstAppError(err)
	}

	return avatar, resume, nil
}

// discard deletes already uploaded assets. Failures are only logged.
func (a *Accounts) discard(assets ...model.Asset) {
	for _, asset := range assets {
		if asset.PublicID == "" {
			continue
		}

		if err := a.Images.Delete(context.Background(), asset.PublicID); err != nil {
			zap.L().Error("Failed to clean up uploaded file", zap.String("publicID", asset.PublicID), zap.Error(err))
		} else {
			zap.L().Debug("Cleaned up uploaded file", zap.String("publicID", asset.PublicID))
		}
	}
}

// Login returns the user owning email if password matches. Unknown emails
// and wrong passwords fail the same way.
func (a *Accounts) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, apperror.Validation("Email and Password are required!")
	}

	u, err := a.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if !a.Users.VerifyPassword(u, password) {
		return nil, errInvalidCredentials
	}

	return u, nil
}

func (a *Accounts) ChangePassword(ctx context.Context, u *model.User, current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return apperror.Validation("Please fill all fields.")
	}

	if !a.Users.VerifyPassword(u, current) {
		return apperror.Validation("Incorrect Current Password")
	}

	if next != confirm {
		return apperror.Validation("New password and confirm password do not match.")
	}

	if err := validators.PasswordValidator(next); err != nil {
		return invalid(err)
	}

	return a.Users.SetPassword(ctx, u.ID, next)
}

// UpdateProfile applies in to u. A replaced avatar or resume is deleted from
// the image host once the new one is stored.
func (a *Accounts) UpdateProfile(ctx context.Context, u *model.User, in ProfileInput) (*model.User, error) {
	if in.Email != "" {
		if err := validators.EmailValidator(validators.NormalizeEmail(in.Email)); err != nil {
			return nil, invalid(err)
		}
	}

	upd := in.Profile.update()

	var uploaded []model.Asset
	if in.Avatar != nil {
		avatar, err := a.Images.Upload(ctx, AvatarFolder, in.Avatar)
		if err != nil {
			return nil, err
		}

		upd.Avatar = &avatar
		uploaded = append(uploaded, avatar)
	}

	if in.Resume != nil {
		resume, err := a.Images.Upload(ctx, ResumeFolder, in.Resume)
		if err != nil {
			a.discard(uploaded...)
			return nil, err
		}

		upd.Resume = &resume
		uploaded = append(uploaded, resume)
	}

	updated, err := a.Users.UpdateProfile(ctx, u.ID, upd)
	if err != nil {
		a.discard(uploaded...)
		return nil, err
	}

	if upd.Avatar != nil {
		a.discard(u.Avatar)
	}

	if upd.Resume != nil {
		a.discard(u.Resume)
	}

	return updated, nil
}

// Portfolio returns the profile shown on the public portfolio site
func (a *Accounts) Portfolio(ctx context.Context) (*model.User, error) {
	if a.PortfolioUserID != "" {
		return a.Users.FindByID(ctx, a.PortfolioUserID)
	}

	return a.Users.First(ctx)
}

// invalid turns a validator error into a client facing validation error
func invalid(err error) error {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)

	return &apperror.Error{
		Kind:    apperror.KindValidation,
		Message: string(unicode.ToUpper(r)) + msg[size:],
		Err:     err,
	}
}

// firstAppError prefers a typed error from a joined set so the client sees
// the real cause instead of a context cancellation
func firstAppError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	return err
}
