package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"comictalk/infrastructure/cache"
	"comictalk/internal/entity"
	"comictalk/internal/repository"

	"github.com/rs/zerolog"
)

const (
	profileCacheTTL   = 5 * time.Minute
	maxFullnameLength = 100
	maxAvatarLength   = 2048
)

var (
	ErrEmptyProfileUpdate = fmt.Errorf("%w: provide fullname or avatar", ErrValidation)
	ErrInvalidFullname    = fmt.Errorf("%w: fullname must be 1-%d characters", ErrValidation, maxFullnameLength)
	ErrInvalidAvatar      = fmt.Errorf("%w: avatar must be an http(s) URL", ErrValidation)
)

type UserUsecase interface {
	Get(ctx context.Context, userId int64) (entity.User, error)
	GetMany(ctx context.Context, userIds []int64) ([]entity.User, error)
	Exists(ctx context.Context, userId int64) (bool, error)
	Touch(ctx context.Context, userId int64) error
	UpdateProfile(ctx context.Context, userId int64, req entity.UpdateProfileRequest) (entity.User, error)
}

type userUsecase struct {
	userRepo repository.UserRepository
	cache    *cache.MemCache
	log      zerolog.Logger
}

func NewUserUseCase(userRepo repository.UserRepository, profileCache *cache.MemCache, log zerolog.Logger) UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
		cache:    profileCache,
		log:      log,
	}
}

func (u *userUsecase) Get(ctx context.Context, userId int64) (entity.User, error) {
	if userId <= 0 {
		return entity.User{}, ErrInvalidUserId
	}

	if cached, ok := u.cache.Get(profileKey(userId)); ok {
		return cached.(entity.User), nil
	}

	user, err := u.userRepo.Get(ctx, userId)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.User{}, ErrUserNotFound
		}
		u.log.Error().Err(err).Int64("user_id", userId).Msg("load user")
		return entity.User{}, fmt.Errorf("%w: load user", ErrPersistence)
	}

	u.cache.Set(profileKey(userId), user, profileCacheTTL)
	return user, nil
}

// GetMany returns the profiles that exist among userIds, in the order given.
// Unknown ids are skipped.
func (u *userUsecase) GetMany(ctx context.Context, userIds []int64) ([]entity.User, error) {
	found := make(map[int64]entity.User, len(userIds))
	missing := make([]int64, 0, len(userIds))
	for _, id := range userIds {
		if cached, ok := u.cache.Get(profileKey(id)); ok {
			found[id] = cached.(entity.User)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		users, err := u.userRepo.GetMany(ctx, missing)
		if err != nil {
			u.log.Error().Err(err).Int("count", len(missing)).Msg("load users")
			return nil, fmt.Errorf("%w: load users", ErrPersistence)
		}
		for _, user := range users {
			found[user.Id] = user
			u.cache.Set(profileKey(user.Id), user, profileCacheTTL)
		}
	}

	users := make([]entity.User, 0, len(found))
	for _, id := range userIds {
		if user, ok := found[id]; ok {
			users = append(users, user)
		}
	}

	return users, nil
}

// Exists reports whether userId names a stored user.
func (u *userUsecase) Exists(ctx context.Context, userId int64) (bool, error) {
	if userId <= 0 {
		return false, ErrInvalidUserId
	}
	if _, ok := u.cache.Get(profileKey(userId)); ok {
		return true, nil
	}

	exists, err := u.userRepo.Exists(ctx, userId)
	if err != nil {
		u.log.Error().Err(err).Int64("user_id", userId).Msg("check user exists")
		return false, fmt.Errorf("%w: check user", ErrPersistence)
	}
	return exists, nil
}

func (u *userUsecase) UpdateProfile(ctx context.Context, userId int64, req entity.UpdateProfileRequest) (entity.User, error) {
	if req.Fullname == nil && req.Avatar == nil {
		return entity.User{}, ErrEmptyProfileUpdate
	}

	current, err := u.Get(ctx, userId)
	if err != nil {
		return entity.User{}, err
	}

	fullname := current.Fullname
	if req.Fullname != nil {
		fullname = strings.TrimSpace(*req.Fullname)
		if fullname == "" || utf8.RuneCountInString(fullname) > maxFullnameLength {
			return entity.User{}, ErrInvalidFullname
		}
	}

	avatar := current.Avatar
	if req.Avatar != nil {
		avatar = strings.TrimSpace(*req.Avatar)
		if avatar != "" && !isHTTPURL(avatar) {
			return entity.User{}, ErrInvalidAvatar
		}
	}

	user, err := u.userRepo.UpdateProfile(ctx, userId, fullname, avatar)
	u.cache.Delete(profileKey(userId))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.User{}, ErrUserNotFound
		}
		u.log.Error().Err(err).Int64("user_id", userId).Msg("update profile")
		return entity.User{}, fmt.Errorf("%w: update profile", ErrPersistence)
	}

	return user, nil
}

// Touch records activity for the user. lastSeenAt is informational only;
// presence is decided by the websocket hub.
func (u *userUsecase) Touch(ctx context.Context, userId int64) error {
	err := u.userRepo.TouchLastSeen(ctx, userId, time.Now())
	u.cache.Delete(profileKey(userId))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		u.log.Warn().Err(err).Int64("user_id", userId).Msg("touch last seen")
		return fmt.Errorf("%w: touch last seen", ErrPersistence)
	}

	return nil
}

func isHTTPURL(raw string) bool {
	if len(raw) > maxAvatarLength {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func profileKey(userId int64) string {
	return "user:" + strconv.FormatInt(userId, 10)
}
