package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

// nextSequence atomically increments the named counter and returns the new value.
func nextSequence(ctx context.Context, db mongo.Database, name string) (int64, error) {
	collection := db.Collection("counters")
	filter := bson.M{"_id": name}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c)
	if err != nil {
		return 0, err
	}

	return c.Seq, nil
}
