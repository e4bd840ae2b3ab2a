package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickchat/internal/domain"
	"quickchat/internal/dto"
	"quickchat/internal/observability/metrics"
	"quickchat/internal/store"
)

// UserStore is the slice of the persistence layer the services consume.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	ListOthers(ctx context.Context, id primitive.ObjectID) ([]*domain.User, error)
}

// MediaStore stores uploaded images and serves them by id.
type MediaStore interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*store.MediaFile, error)
	Delete(ctx context.Context, id string) error
}

const minPasswordLen = 6

// AuthService validates credentials, issues bearer tokens and owns profile
// mutation.
type AuthService struct {
	users     UserStore
	passwords *PasswordService
	tokens    *TokenService
	media     MediaStore
	now       func() time.Time
}

func NewAuthService(users UserStore, passwords *PasswordService, tokens *TokenService, media MediaStore) *AuthService {
	return &AuthService{
		users:     users,
		passwords: passwords,
		tokens:    tokens,
		media:     media,
		now:       time.Now,
	}
}

func (a *AuthService) Signup(ctx context.Context, r dto.SignupRequest) (*domain.User, string, error) {
	result := "success"
	defer func() {
		metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
	}()

	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.FullName == "" || r.Email == "" || r.Password == "" || r.Bio == "" {
		result = "failure"
		return nil, "", fmt.Errorf("%w: missing details", domain.ErrInvalidRequest)
	}
	if !strings.ContainsRune(r.Email, '@') {
		result = "failure"
		return nil, "", fmt.Errorf("%w: invalid email", domain.ErrInvalidRequest)
	}
	if len(r.Password) < minPasswordLen {
		result = "failure"
		return nil, "", fmt.Errorf("%w: password too short", domain.ErrInvalidRequest)
	}
	if len(r.Bio) > domain.MaxBioLen {
		result = "failure"
		return nil, "", fmt.Errorf("%w: bio too long", domain.ErrInvalidRequest)
	}

	hash, err := a.passwords.Hash(r.Password)
	if err != nil {
		result = "failure"
		return nil, "", err
	}

	now := a.now().UTC()
	u := &domain.User{
		Email:     r.Email,
		Password:  hash,
		FullName:  r.FullName,
		Bio:       r.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.users.Create(ctx, u); err != nil {
		result = "failure"
		return nil, "", err
	}

	token, err := a.tokens.Issue(u.ID.Hex())
	if err != nil {
		result = "failure"
		return nil, "", err
	}
	slog.Info("account created", "user_id", u.ID.Hex())
	return u, token, nil
}

func (a *AuthService) Login(ctx context.Context, r dto.LoginRequest) (*domain.User, string, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if r.Email == "" || r.Password == "" {
		result = "failure"
		return nil, "", fmt.Errorf("%w: missing email or password", domain.ErrInvalidRequest)
	}

	u, err := a.users.GetByEmail(ctx, r.Email)
	if err != nil {
		// Unknown account and bad password look identical to the caller.
		result = "failure"
		return nil, "", domain.ErrInvalidCredentials
	}
	if !a.passwords.Verify(u.Password, r.Password) {
		result = "failure"
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(u.ID.Hex())
	if err != nil {
		result = "failure"
		return nil, "", err
	}
	return u, token, nil
}

// CurrentUser resolves an authenticated user id to its account record.
func (a *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return a.users.GetByID(ctx, id)
}

func (a *AuthService) UpdateProfile(ctx context.Context, userID string, r dto.UpdateProfileRequest) (*domain.User, error) {
	u, err := a.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if r.Password != "" {
		if r.OldPassword == "" || !a.passwords.Verify(u.Password, r.OldPassword) {
			return nil, fmt.Errorf("%w: incorrect old password", domain.ErrInvalidRequest)
		}
		hash, err := a.passwords.Hash(r.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}

	if r.ProfilePic != "" {
		contentType, data, err := parseDataURI(r.ProfilePic)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
		}
		file, err := a.media.Upload(ctx, "avatar", contentType, data)
		if err != nil {
			return nil, err
		}
		// Drop the replaced avatar; losing this delete only leaks storage.
		if old := mediaIDFromURL(u.ProfilePic); old != "" {
			if err := a.media.Delete(ctx, old); err != nil {
				slog.Warn("delete old avatar failed", "media_id", old, "error", err)
			}
		}
		u.ProfilePic = mediaURL(file.ID)
	}

	if name := strings.TrimSpace(r.FullName); name != "" {
		u.FullName = name
	}
	if bio := strings.TrimSpace(r.Bio); bio != "" {
		if len(bio) > domain.MaxBioLen {
			return nil, fmt.Errorf("%w: bio too long", domain.ErrInvalidRequest)
		}
		u.Bio = bio
	}

	u.UpdatedAt = a.now().UTC()
	if err := a.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
