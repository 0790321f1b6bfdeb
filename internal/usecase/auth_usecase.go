package usecase

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"comictalk/infrastructure/mail"
	"comictalk/internal/entity"
	"comictalk/internal/repository"
	"comictalk/pkg/jwt"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	mailTimeout       = 30 * time.Second
)

var (
	ErrMissingFields = fmt.Errorf("%w: email, password and fullname are required", ErrValidation)
	ErrInvalidEmail  = fmt.Errorf("%w: invalid email address", ErrValidation)
	ErrWeakPassword  = fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
)

type AuthUsecase interface {
	Register(ctx context.Context, req entity.RegisterRequest) (entity.AuthResponse, error)
	Login(ctx context.Context, req entity.LoginRequest) (entity.AuthResponse, error)
	ValidateAccessToken(token string) (*entity.TokenClaims, error)
}

type authUsecase struct {
	userRepo   repository.UserRepository
	jwtManager *jwt.JWTManager
	mailer     mail.Mailer
	log        zerolog.Logger
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	jwtManager *jwt.JWTManager,
	mailer mail.Mailer,
	log zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		mailer:     mailer,
		log:        log,
	}
}

func (u *authUsecase) Register(ctx context.Context, req entity.RegisterRequest) (entity.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	fullname := strings.TrimSpace(req.Fullname)
	if email == "" || req.Password == "" || fullname == "" {
		return entity.AuthResponse{}, ErrMissingFields
	}
	if _, err := netmail.ParseAddress(email); err != nil {
		return entity.AuthResponse{}, ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return entity.AuthResponse{}, ErrWeakPassword
	}

	emailExists, err := u.userRepo.EmailExists(ctx, email)
	if err != nil {
		u.log.Error().Err(err).Msg("check email")
		return entity.AuthResponse{}, fmt.Errorf("%w: could not register", ErrPersistence)
	}
	if emailExists {
		return entity.AuthResponse{}, ErrEmailAlreadyTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return entity.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := u.userRepo.Create(ctx, entity.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Fullname:     fullname,
	})
	if err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, repository.ErrEmailTaken) {
			return entity.AuthResponse{}, ErrEmailAlreadyTaken
		}
		u.log.Error().Err(err).Msg("create user")
		return entity.AuthResponse{}, fmt.Errorf("%w: could not register", ErrPersistence)
	}

	u.sendWelcome(ctx, user)

	return u.issue(user)
}

func (u *authUsecase) Login(ctx context.Context, req entity.LoginRequest) (entity.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return entity.AuthResponse{}, ErrInvalidCredentials
	}

	user, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.AuthResponse{}, ErrInvalidCredentials
		}
		u.log.Error().Err(err).Msg("load user by email")
		return entity.AuthResponse{}, fmt.Errorf("%w: could not log in", ErrPersistence)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return entity.AuthResponse{}, ErrInvalidCredentials
	}

	return u.issue(user)
}

// ValidateAccessToken verifies signature and expiry and returns the bound identity.
func (u *authUsecase) ValidateAccessToken(token string) (*entity.TokenClaims, error) {
	claims, err := u.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (u *authUsecase) issue(user entity.User) (entity.AuthResponse, error) {
	accessToken, err := u.jwtManager.GenerateAccessToken(user)
	if err != nil {
		return entity.AuthResponse{}, fmt.Errorf("generate access token: %w", err)
	}

	return entity.AuthResponse{
		AccessToken: accessToken,
		User:        user,
	}, nil
}

// sendWelcome mails the new user in the background; failures are only logged.
func (u *authUsecase) sendWelcome(ctx context.Context, user entity.User) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	go func() {
		defer cancel()
		subject := "Welcome to ComicTalk"
		body := fmt.Sprintf("Hi %s,\n\nyour ComicTalk account is ready. Happy reading!\n", user.Fullname)
		if err := u.mailer.Send(ctx, user.Email, subject, body); err != nil {
			u.log.Warn().Err(err).Int64("user_id", user.Id).Msg("send welcome mail")
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
