package services

import (
	"context"
	"errors"
	"testing"

	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	msgs := &fakeMessageRepo{}
	pub := &fakePublisher{}
	svc := NewMessageService(msgs, users, pub, discardLogger())

	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Sup3r!secret")
	bob := users.seed(t, "Bob Builder", "bob@example.com", "0244000002", "Sup3r!secret")
	a, b := alice.ID.Hex(), bob.ID.Hex()

	first, err := svc.Send(ctx, a, b, "  hi  ")
	require.NoError(t, err)
	assert.Equal(t, "hi", first.Text)
	assert.Equal(t, helpers.RoomID(a, b), first.RoomID)

	reply, err := svc.Send(ctx, b, a, "hey")
	require.NoError(t, err)
	assert.Equal(t, first.RoomID, reply.RoomID)

	require.Len(t, pub.events, 2)
	assert.Equal(t, first.RoomID, pub.events[0].Room)
	assert.Equal(t, realtime.EventMessage, pub.events[0].Event)
	assert.Same(t, first, pub.events[0].Payload)

	history, err := svc.History(ctx, b, a, 0, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hi", history[0].Text)
	assert.Equal(t, "hey", history[1].Text)

	page, err := svc.History(ctx, a, b, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "hey", page[0].Text)
}

func TestSendMessage_Rejections(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	msgs := &fakeMessageRepo{}
	pub := &fakePublisher{}
	svc := NewMessageService(msgs, users, pub, discardLogger())
	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Sup3r!secret")
	a := alice.ID.Hex()
	ghost := "65f0c0ffee0000000000000a"

	_, err := svc.Send(ctx, a, ghost, "   ")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Send(ctx, ghost, a, "hi")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Send(ctx, a, ghost, "hi")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Send(ctx, a, "not-an-id", "hi")
	assert.ErrorIs(t, err, models.ErrValidation)

	assert.Empty(t, msgs.msgs)
	assert.Empty(t, pub.events)
}

func TestSendMessage_StoreFailureSkipsPublish(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	msgs := &fakeMessageRepo{err: errors.New("write concern timeout")}
	pub := &fakePublisher{}
	svc := NewMessageService(msgs, users, pub, discardLogger())
	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Sup3r!secret")
	bob := users.seed(t, "Bob Builder", "bob@example.com", "0244000002", "Sup3r!secret")

	_, err := svc.Send(ctx, alice.ID.Hex(), bob.ID.Hex(), "hi")
	require.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestSendMessage_DeliversToRealtimeRoom(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserRepo()
	hub := realtime.NewHub(discardLogger())
	svc := NewMessageService(&fakeMessageRepo{}, users, hub, discardLogger())
	alice := users.seed(t, "Alice Wonder", "alice@example.com", "0244000001", "Sup3r!secret")
	bob := users.seed(t, "Bob Builder", "bob@example.com", "0244000002", "Sup3r!secret")

	msg, err := svc.Send(ctx, alice.ID.Hex(), bob.ID.Hex(), "nobody is listening")
	require.NoError(t, err)
	assert.Equal(t, 0, hub.RoomSize(msg.RoomID))
}
