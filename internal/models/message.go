package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Message struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID   primitive.ObjectID `bson:"sender_id" json:"senderId"`
	ReceiverID primitive.ObjectID `bson:"receiver_id" json:"receiverId"`
	RoomID     string             `bson:"room_id" json:"roomId"`
	Text       string             `bson:"text" json:"text" validate:"required"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)
	ListRoomMessages(ctx context.Context, roomID string, limit, offset int64) ([]*Message, error)
}

func (m *Message) BeforeCreate() {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.CreatedAt = time.Now().UTC()
}

func (mdb *MongodbRepo) CreateMessage(ctx context.Context, msg *Message) (*Message, error) {
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	msg.BeforeCreate()
	if err := Validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := col.InsertOne(ctx, msg); err != nil {
		return nil, fmt.Errorf("error inserting message: %w", err)
	}
	return msg, nil
}

// ListRoomMessages pages through a room oldest first.
func (mdb *MongodbRepo) ListRoomMessages(ctx context.Context, roomID string, limit, offset int64) ([]*Message, error) {
	col, err := mdb.GetCollection(ctx, MessagesColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(offset).
		SetLimit(limit)
	cursor, err := col.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("error decoding messages: %w", err)
	}
	return messages, nil
}
