package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshua-takyi/talknet/internal/models"
)

type FriendService struct {
	friends models.FriendRepo
	users   models.UserRepo
	logger  *slog.Logger
}

func NewFriendService(friends models.FriendRepo, users models.UserRepo, logger *slog.Logger) *FriendService {
	return &FriendService{
		friends: friends,
		users:   users,
		logger:  logger,
	}
}

// SendRequest creates a pending request from requester to target. Only one
// request may exist per pair, in either direction.
func (fs *FriendService) SendRequest(ctx context.Context, requesterID, targetID string) (*models.FriendRequestView, error) {
	requester, err := fs.users.FindByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("account is logged out: %w", models.ErrNotFound)
		}
		return nil, err
	}
	targetOID, err := models.ParseID(targetID)
	if err != nil {
		return nil, err
	}
	if targetOID == requester.ID {
		return nil, models.ValidationError("cannot send a friend request to yourself")
	}
	target, err := fs.users.FindByID(ctx, targetOID.Hex())
	if err != nil {
		return nil, err
	}

	// Canonical hex ids keep the pair key stable whatever case the caller used.
	req, err := fs.friends.CreateFriendRequest(ctx, requester.ID.Hex(), target.ID.Hex())
	if err != nil {
		return nil, err
	}
	fs.logger.Info("friend request sent", "request_id", req.ID.Hex(), "requester_id", requester.ID.Hex(), "target_id", target.ID.Hex())

	p := target.Public()
	return &models.FriendRequestView{FriendRequest: req, Counterpart: &p}, nil
}

// ListPending returns pending requests the user sent (Outgoing) or received
// (Incoming), newest first, each joined with the other party's profile.
func (fs *FriendService) ListPending(ctx context.Context, userID string, dir models.Direction) ([]*models.FriendRequestView, error) {
	if _, err := fs.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("account is logged out: %w", models.ErrNotFound)
		}
		return nil, err
	}
	reqs, err := fs.friends.ListFriendRequests(ctx, userID, dir, models.StatusPending)
	if err != nil {
		return nil, err
	}
	return fs.withCounterparts(ctx, userID, reqs), nil
}

// Accept is only allowed for the target of the request.
func (fs *FriendService) Accept(ctx context.Context, userID, requestID string) (*models.FriendRequest, error) {
	req, err := fs.friends.FindFriendRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.TargetID.Hex() != userID {
		return nil, fmt.Errorf("only the recipient can accept a friend request: %w", models.ErrForbidden)
	}
	if req.Status == models.StatusAccepted {
		return nil, models.ErrAlreadyAccepted
	}
	accepted, err := fs.friends.AcceptFriendRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	fs.logger.Info("friend request accepted", "request_id", requestID, "user_id", userID)
	return accepted, nil
}

// Decline removes the request. Either party may decline, which also lets the
// requester cancel or a friend unfriend.
func (fs *FriendService) Decline(ctx context.Context, userID, requestID string) (models.FriendStatus, error) {
	req, err := fs.friends.FindFriendRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if !req.Involves(userID) {
		return "", fmt.Errorf("not a party to this friend request: %w", models.ErrForbidden)
	}
	if err := fs.friends.DeleteFriendRequest(ctx, requestID); err != nil {
		return "", err
	}
	fs.logger.Info("friend request declined", "request_id", requestID, "user_id", userID)
	return models.StatusDeclined, nil
}

// ListFriends derives friendships from accepted requests in both directions.
func (fs *FriendService) ListFriends(ctx context.Context, userID string) ([]*models.FriendRequestView, error) {
	reqs, err := fs.friends.ListAccepted(ctx, userID)
	if err != nil {
		return nil, err
	}
	return fs.withCounterparts(ctx, userID, reqs), nil
}

// AreFriends reports whether an accepted request links the two users in
// either direction.
func (fs *FriendService) AreFriends(ctx context.Context, userID, peerID string) (bool, error) {
	peer, err := models.ParseID(peerID)
	if err != nil {
		return false, err
	}
	reqs, err := fs.friends.ListAccepted(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range reqs {
		if r.Other(userID) == peer.Hex() {
			return true, nil
		}
	}
	return false, nil
}

func (fs *FriendService) withCounterparts(ctx context.Context, userID string, reqs []*models.FriendRequest) []*models.FriendRequestView {
	views := make([]*models.FriendRequestView, 0, len(reqs))
	for _, r := range reqs {
		view := &models.FriendRequestView{FriendRequest: r}
		other, err := fs.users.FindByID(ctx, r.Other(userID))
		if err != nil {
			fs.logger.Warn("friend request counterpart missing", "request_id", r.ID.Hex(), "error", err)
		} else {
			p := other.Public()
			view.Counterpart = &p
		}
		views = append(views, view)
	}
	return views
}
