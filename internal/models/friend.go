package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshua-takyi/talknet/internal/helpers"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FriendStatus string

// StatusDeclined is never stored: a declined request is deleted.
const (
	StatusPending  FriendStatus = "pending"
	StatusAccepted FriendStatus = "accepted"
	StatusDeclined FriendStatus = "declined"
)

// Direction selects which side of a request the caller is on.
type Direction string

const (
	Incoming Direction = "incoming"
	Outgoing Direction = "outgoing"
)

type FriendRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	RequesterID primitive.ObjectID `bson:"requester_id" json:"requesterId"`
	TargetID    primitive.ObjectID `bson:"target_id" json:"targetId"`
	PairKey     string             `bson:"pair_key" json:"-"`
	Status      FriendStatus       `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FriendRequestView is a request joined with the identity of the other party.
type FriendRequestView struct {
	*FriendRequest
	Counterpart *UserProfile `json:"user,omitempty"`
}

type FriendRepo interface {
	CreateFriendRequest(ctx context.Context, requesterID, targetID string) (*FriendRequest, error)
	FindFriendRequest(ctx context.Context, id string) (*FriendRequest, error)
	AcceptFriendRequest(ctx context.Context, id string) (*FriendRequest, error)
	DeleteFriendRequest(ctx context.Context, id string) error
	ListFriendRequests(ctx context.Context, userID string, dir Direction, status FriendStatus) ([]*FriendRequest, error)
	ListAccepted(ctx context.Context, userID string) ([]*FriendRequest, error)
}

func (mdb *MongodbRepo) CreateFriendRequest(ctx context.Context, requesterID, targetID string) (*FriendRequest, error) {
	from, err := ParseID(requesterID)
	if err != nil {
		return nil, err
	}
	to, err := ParseID(targetID)
	if err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, FriendsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	now := time.Now().UTC()
	req := &FriendRequest{
		ID:          primitive.NewObjectID(),
		RequesterID: from,
		TargetID:    to,
		PairKey:     helpers.RoomID(from.Hex(), to.Hex()),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := col.InsertOne(ctx, req); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyAdded
		}
		return nil, fmt.Errorf("error inserting friend request: %w", err)
	}
	return req, nil
}

func (mdb *MongodbRepo) FindFriendRequest(ctx context.Context, id string) (*FriendRequest, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, FriendsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	var req FriendRequest
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("friend request: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("error finding friend request: %w", err)
	}
	return &req, nil
}

// AcceptFriendRequest flips a pending request to accepted. A request that is
// no longer pending yields ErrAlreadyAccepted.
func (mdb *MongodbRepo) AcceptFriendRequest(ctx context.Context, id string) (*FriendRequest, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(ctx, FriendsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	filter := bson.M{"_id": oid, "status": StatusPending}
	update := bson.M{"$set": bson.M{"status": StatusAccepted, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req FriendRequest
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAlreadyAccepted
		}
		return nil, fmt.Errorf("error accepting friend request: %w", err)
	}
	return &req, nil
}

func (mdb *MongodbRepo) DeleteFriendRequest(ctx context.Context, id string) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}
	col, err := mdb.GetCollection(ctx, FriendsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %w", err)
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("error deleting friend request: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("friend request: %w", ErrNotFound)
	}
	return nil
}

// ListFriendRequests returns requests where userID is the target (Incoming)
// or the requester (Outgoing), newest first.
func (mdb *MongodbRepo) ListFriendRequests(ctx context.Context, userID string, dir Direction, status FriendStatus) ([]*FriendRequest, error) {
	oid, err := ParseID(userID)
	if err != nil {
		return nil, err
	}
	field := "requester_id"
	if dir == Incoming {
		field = "target_id"
	}
	return mdb.findFriendRequests(ctx, bson.M{field: oid, "status": status})
}

// ListAccepted returns accepted requests in either direction.
func (mdb *MongodbRepo) ListAccepted(ctx context.Context, userID string) ([]*FriendRequest, error) {
	oid, err := ParseID(userID)
	if err != nil {
		return nil, err
	}
	filter := bson.M{
		"status": StatusAccepted,
		"$or":    bson.A{bson.M{"requester_id": oid}, bson.M{"target_id": oid}},
	}
	return mdb.findFriendRequests(ctx, filter)
}

func (mdb *MongodbRepo) findFriendRequests(ctx context.Context, filter bson.M) ([]*FriendRequest, error) {
	col, err := mdb.GetCollection(ctx, FriendsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding friend requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := make([]*FriendRequest, 0)
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("error decoding friend requests: %w", err)
	}
	return requests, nil
}

// Other returns the id of the party that is not userID.
func (fr *FriendRequest) Other(userID string) string {
	if fr.RequesterID.Hex() == userID {
		return fr.TargetID.Hex()
	}
	return fr.RequesterID.Hex()
}

func (fr *FriendRequest) Involves(userID string) bool {
	return fr.RequesterID.Hex() == userID || fr.TargetID.Hex() == userID
}
