package repository

import (
	"context"
	"time"

	"comictalk/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageRepository interface {
	Create(ctx context.Context, message entity.Message) (entity.Message, error)
	FindBetween(ctx context.Context, userId, otherUserId int64) ([]entity.Message, error)
	MarkRead(ctx context.Context, senderId, receiverId int64) (int64, error)
	FindInvolving(ctx context.Context, userId int64) ([]entity.Message, error)
}

type messageRepository struct {
	db mongo.Database
}

func NewMessageRepository(db mongo.Database) MessageRepository {
	return &messageRepository{
		db: db,
	}
}

func (r *messageRepository) Create(ctx context.Context, message entity.Message) (entity.Message, error) {
	collection := r.db.Collection("messages")

	id, err := nextSequence(ctx, r.db, "messages")
	if err != nil {
		return entity.Message{}, err
	}

	// Mongo keeps millisecond precision; truncate so the returned record matches what is stored.
	now := time.Now().UTC().Truncate(time.Millisecond)
	message.Id = id
	message.IsRead = false
	message.CreatedAt = now
	message.UpdatedAt = now

	_, err = collection.InsertOne(ctx, message)
	if err != nil {
		return entity.Message{}, err
	}

	return message, nil
}

func (r *messageRepository) FindBetween(ctx context.Context, userId, otherUserId int64) ([]entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"$or": bson.A{
			bson.M{"senderId": userId, "receiverId": otherUserId},
			bson.M{"senderId": otherUserId, "receiverId": userId},
		},
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	return r.find(ctx, collection, filter, opts)
}

func (r *messageRepository) MarkRead(ctx context.Context, senderId, receiverId int64) (int64, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"senderId":   senderId,
		"receiverId": receiverId,
		"isRead":     false,
	}
	update := bson.M{
		"$set": bson.M{
			"isRead":    true,
			"updatedAt": time.Now().UTC(),
		},
	}

	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}

	return result.ModifiedCount, nil
}

func (r *messageRepository) FindInvolving(ctx context.Context, userId int64) ([]entity.Message, error) {
	collection := r.db.Collection("messages")
	filter := bson.M{
		"$or": bson.A{
			bson.M{"senderId": userId},
			bson.M{"receiverId": userId},
		},
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	return r.find(ctx, collection, filter, opts)
}

func (r *messageRepository) find(ctx context.Context, collection *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]entity.Message, error) {
	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]entity.Message, 0)
	err = cursor.All(ctx, &messages)
	if err != nil {
		return nil, err
	}

	return messages, nil
}
