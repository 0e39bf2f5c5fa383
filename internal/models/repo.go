package models

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Validate = validator.New()

const (
	UsersColName    = "users"
	FriendsColName  = "friends"
	MessagesColName = "messages"
)

type MongodbRepo struct {
	mongodbClient *mongo.Client
	dbName        string
}

func MongodbNewRepo(mongodbClient *mongo.Client, dbName string) *MongodbRepo {
	return &MongodbRepo{
		mongodbClient: mongodbClient,
		dbName:        dbName,
	}
}

func (mdb *MongodbRepo) GetCollection(ctx context.Context, colName string) (*mongo.Collection, error) {
	if mdb.mongodbClient == nil {
		return nil, fmt.Errorf("mongodb client is not initialized")
	}
	return mdb.mongodbClient.Database(mdb.dbName).Collection(colName), nil
}

// EnsureIndexes creates the indexes the repositories rely on for uniqueness
// and lookups. It is safe to call on every start.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		UsersColName: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
			{Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_phone")},
			{
				Keys: bson.D{{Key: "username", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("uniq_username").
					SetPartialFilterExpression(bson.M{"username": bson.M{"$type": "string", "$gt": ""}}),
			},
		},
		FriendsColName: {
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_pair")},
			{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("target_status")},
			{Keys: bson.D{{Key: "requester_id", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("requester_status")},
		},
		MessagesColName: {
			{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}}, Options: options.Index().SetName("room_created")},
		},
	}

	for colName, idx := range specs {
		col, err := mdb.GetCollection(ctx, colName)
		if err != nil {
			return err
		}
		if _, err := col.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("error creating %s indexes: %w", colName, err)
		}
	}
	return nil
}
