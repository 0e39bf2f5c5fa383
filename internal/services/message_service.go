package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/realtime"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type MessageService struct {
	messages  models.MessageRepo
	users     models.UserRepo
	publisher realtime.Publisher
	logger    *slog.Logger
}

func NewMessageService(messages models.MessageRepo, users models.UserRepo, publisher realtime.Publisher, logger *slog.Logger) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Send stores the message and then pushes it to the pair's room. The push is
// best effort; a stored message is never rolled back.
func (ms *MessageService) Send(ctx context.Context, senderID, receiverID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ValidationError("message text is required")
	}
	sender, err := ms.users.FindByID(ctx, senderID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("sender: %w", models.ErrNotFound)
		}
		return nil, err
	}
	receiver, err := ms.users.FindByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("receiver: %w", models.ErrNotFound)
		}
		return nil, err
	}

	msg, err := ms.messages.CreateMessage(ctx, &models.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		RoomID:     helpers.RoomID(sender.ID.Hex(), receiver.ID.Hex()),
		Text:       text,
	})
	if err != nil {
		return nil, err
	}

	ms.publisher.Emit(msg.RoomID, realtime.EventMessage, msg)
	ms.logger.Debug("message relayed", "message_id", msg.ID.Hex(), "room_id", msg.RoomID)
	return msg, nil
}

// History pages through the conversation between userID and peerID.
func (ms *MessageService) History(ctx context.Context, userID, peerID string, limit, offset int64) ([]*models.Message, error) {
	if _, err := ms.users.FindByID(ctx, peerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return ms.messages.ListRoomMessages(ctx, helpers.RoomID(userID, peerID), limit, offset)
}
