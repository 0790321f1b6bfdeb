package repository

import (
	"context"
	"errors"
	"time"

	"comictalk/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

type UserRepository interface {
	Get(ctx context.Context, userId int64) (entity.User, error)
	GetMany(ctx context.Context, userIds []int64) ([]entity.User, error)
	GetByEmail(ctx context.Context, email string) (entity.User, error)
	Create(ctx context.Context, user entity.User) (entity.User, error)
	Exists(ctx context.Context, userId int64) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TouchLastSeen(ctx context.Context, userId int64, at time.Time) error
	UpdateProfile(ctx context.Context, userId int64, fullname, avatar string) (entity.User, error)
}

type userRepository struct {
	db mongo.Database
}

func NewUserRepository(db mongo.Database) UserRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Get(ctx context.Context, userId int64) (entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": userId})
}

func (r *userRepository) GetMany(ctx context.Context, userIds []int64) ([]entity.User, error) {
	users := make([]entity.User, 0, len(userIds))
	if len(userIds) == 0 {
		return users, nil
	}

	collection := r.db.Collection("users")
	filter := bson.M{"_id": bson.M{"$in": userIds}}

	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) Create(ctx context.Context, user entity.User) (entity.User, error) {
	collection := r.db.Collection("users")

	id, err := nextSequence(ctx, r.db, "users")
	if err != nil {
		return entity.User{}, err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	user.Id = id
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return entity.User{}, ErrEmailTaken
		}
		return entity.User{}, err
	}

	return user, nil
}

func (r *userRepository) Exists(ctx context.Context, userId int64) (bool, error) {
	return r.count(ctx, bson.M{"_id": userId})
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.count(ctx, bson.M{"email": email})
}

func (r *userRepository) TouchLastSeen(ctx context.Context, userId int64, at time.Time) error {
	collection := r.db.Collection("users")
	filter := bson.M{"_id": userId}
	update := bson.M{
		"$set": bson.M{
			"lastSeenAt": at.UTC(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, userId int64, fullname, avatar string) (entity.User, error) {
	collection := r.db.Collection("users")
	filter := bson.M{"_id": userId}
	update := bson.M{
		"$set": bson.M{
			"fullname":  fullname,
			"avatar":    avatar,
			"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user entity.User
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.User{}, ErrUserNotFound
		}
		return entity.User{}, err
	}

	return user, nil
}

func (r *userRepository) findOne(ctx context.Context, filter bson.M) (entity.User, error) {
	collection := r.db.Collection("users")

	var user entity.User
	err := collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return entity.User{}, ErrUserNotFound
		}
		return entity.User{}, err
	}

	return user, nil
}

func (r *userRepository) count(ctx context.Context, filter bson.M) (bool, error) {
	collection := r.db.Collection("users")

	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
