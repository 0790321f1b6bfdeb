package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"comictalk/internal/entity"

	"gorm.io/gorm"
)

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Get(ctx context.Context, userId int64) (entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).First(&user, userId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, ErrUserNotFound
		}
		return entity.User{}, err
	}

	return user, nil
}

func (r *gormUserRepository) GetMany(ctx context.Context, userIds []int64) ([]entity.User, error) {
	users := make([]entity.User, 0, len(userIds))
	if len(userIds) == 0 {
		return users, nil
	}

	if err := r.db.WithContext(ctx).Where("id IN ?", userIds).Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.User{}, ErrUserNotFound
		}
		return entity.User{}, err
	}

	return user, nil
}

func (r *gormUserRepository) Create(ctx context.Context, user entity.User) (entity.User, error) {
	user.Id = 0
	if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return entity.User{}, ErrEmailTaken
		}
		return entity.User{}, err
	}

	return user, nil
}

func (r *gormUserRepository) Exists(ctx context.Context, userId int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userId).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *gormUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *gormUserRepository) TouchLastSeen(ctx context.Context, userId int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userId).
		Update("last_seen_at", at.UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *gormUserRepository) UpdateProfile(ctx context.Context, userId int64, fullname, avatar string) (entity.User, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", userId).
		Updates(map[string]any{
			"fullname":   fullname,
			"avatar":     avatar,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return entity.User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return entity.User{}, ErrUserNotFound
	}

	return r.Get(ctx, userId)
}

// isUniqueViolation covers drivers that do not translate constraint errors.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
