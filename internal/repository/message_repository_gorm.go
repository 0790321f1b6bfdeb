package repository

import (
	"context"
	"time"

	"comictalk/internal/entity"

	"gorm.io/gorm"
)

type gormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) MessageRepository {
	return &gormMessageRepository{db: db}
}

func (r *gormMessageRepository) Create(ctx context.Context, message entity.Message) (entity.Message, error) {
	now := time.Now().UTC()
	message.Id = 0
	message.IsRead = false
	message.CreatedAt = now
	message.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(&message).Error; err != nil {
		return entity.Message{}, err
	}

	return message, nil
}

func (r *gormMessageRepository) FindBetween(ctx context.Context, userId, otherUserId int64) ([]entity.Message, error) {
	messages := make([]entity.Message, 0)
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userId, otherUserId, otherUserId, userId).
		Order("created_at asc").
		Order("id asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *gormMessageRepository) MarkRead(ctx context.Context, senderId, receiverId int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderId, receiverId, false).
		Updates(map[string]any{
			"is_read":    true,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

func (r *gormMessageRepository) FindInvolving(ctx context.Context, userId int64) ([]entity.Message, error) {
	messages := make([]entity.Message, 0)
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userId, userId).
		Order("created_at desc").
		Order("id desc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}
