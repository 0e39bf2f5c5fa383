package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/talknet/internal/config"
	"github.com/joshua-takyi/talknet/internal/helpers"
	"github.com/joshua-takyi/talknet/internal/mailer"
	"github.com/joshua-takyi/talknet/internal/models"
	"github.com/joshua-takyi/talknet/internal/tokens"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "test-secret",
		VerifyTTL:  10 * time.Minute,
		ResetTTL:   10 * time.Minute,
		AccessTTL:  7 * 24 * time.Hour,
		RefreshTTL: 14 * 24 * time.Hour,
	}
}

// expiredTokens signs with the same secret but issues tokens that are
// already past their expiry.
func expiredTokens() *tokens.Service {
	cfg := jwtConfig()
	cfg.VerifyTTL = -time.Minute
	cfg.ResetTTL = -time.Minute
	cfg.RefreshTTL = -time.Minute
	return tokens.NewService(cfg)
}

var linkToken = regexp.MustCompile(`/(?:verify|reset)/([A-Za-z0-9_\-.]+)"`)

func tokenFromEmail(t *testing.T, e mailer.Email) string {
	t.Helper()
	m := linkToken.FindStringSubmatch(e.HTML)
	if m == nil {
		t.Fatalf("no token link in email %q", e.Subject)
	}
	return m[1]
}

// --- fake user repo ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.PhoneNumber == u.PhoneNumber {
			return nil, fmt.Errorf("duplicate: %w", models.ErrConflict)
		}
	}
	u.BeforeCreate()
	hash, err := helpers.HashPassword(u.Password)
	if err != nil {
		return nil, err
	}
	u.Password = hash
	cp := *u
	f.users[u.ID.Hex()] = &cp
	return u, nil
}

func (f *fakeUserRepo) get(id string) (*models.User, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}
	u, ok := f.users[oid.Hex()]
	if !ok {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.get(id)
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for id, u := range f.users {
		if u.Email == email {
			return f.get(id)
		}
	}
	return nil, fmt.Errorf("user: %w", models.ErrNotFound)
}

func (f *fakeUserRepo) FindByIdentifier(_ context.Context, identifier string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kind, value := helpers.ClassifyIdentifier(identifier)
	for id, u := range f.users {
		switch {
		case kind == helpers.ByEmail && u.Email == value,
			kind == helpers.ByPhone && u.PhoneNumber == value,
			kind == helpers.ByUsername && u.Username != "" && u.Username == value:
			return f.get(id)
		}
	}
	return nil, fmt.Errorf("user: %w", models.ErrNotFound)
}

func (f *fakeUserRepo) ExistsByEmailOrPhone(_ context.Context, email, phone string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range f.users {
		if u.Email == email || u.PhoneNumber == phone {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserRepo) UpdateUser(_ context.Context, id string, p models.UserPatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.get(id); err != nil {
		return nil, err
	}
	u := f.users[id]
	if p.Username != nil {
		name := strings.ToLower(*p.Username)
		for otherID, other := range f.users {
			if otherID != id && other.Username == name {
				return nil, fmt.Errorf("username: %w", models.ErrConflict)
			}
		}
		u.Username = name
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.Password != nil {
		hash, err := helpers.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	if p.Profile != nil {
		u.Profile = p.Profile
	}
	if p.IsVerified != nil {
		u.IsVerified = *p.IsVerified
	}
	if p.IsLoggedIn != nil {
		u.IsLoggedIn = *p.IsLoggedIn
	}
	if p.LoginAttempt != nil {
		u.LoginAttempt = *p.LoginAttempt
	}
	if p.RefreshTokenHash != nil {
		u.RefreshTokenHash = *p.RefreshTokenHash
	}
	return f.get(id)
}

func (f *fakeUserRepo) DecrementLoginAttempt(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	if u.LoginAttempt > 0 {
		u.LoginAttempt--
	}
	return u.LoginAttempt, nil
}

func (f *fakeUserRepo) ListUsers(_ context.Context, excludeID, role string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for id, u := range f.users {
		if id == excludeID || (role != "" && u.Role != role) {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fullname < out[j].Fullname })
	return out, nil
}

func (f *fakeUserRepo) SearchUsers(_ context.Context, query, excludeID string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, models.ValidationError("search term is required")
	}
	var out []*models.User
	for id, u := range f.users {
		if id == excludeID {
			continue
		}
		match := u.Username == q
		for _, w := range strings.Fields(strings.ToLower(u.Fullname)) {
			match = match || w == q
		}
		if match {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

// seed stores a verified user with a known password.
func (f *fakeUserRepo) seed(t *testing.T, fullname, email, phone, password string) *models.User {
	t.Helper()
	u, err := f.CreateUser(context.Background(), &models.User{
		Fullname:    fullname,
		Email:       email,
		PhoneNumber: phone,
		Password:    password,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	f.mu.Lock()
	f.users[u.ID.Hex()].IsVerified = true
	f.mu.Unlock()
	return u
}

// --- fake friend repo ---

type fakeFriendRepo struct {
	mu   sync.Mutex
	reqs map[string]*models.FriendRequest
}

func newFakeFriendRepo() *fakeFriendRepo {
	return &fakeFriendRepo{reqs: make(map[string]*models.FriendRequest)}
}

func (f *fakeFriendRepo) CreateFriendRequest(_ context.Context, requesterID, targetID string) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := helpers.RoomID(requesterID, targetID)
	for _, r := range f.reqs {
		if r.PairKey == key {
			return nil, models.ErrAlreadyAdded
		}
	}
	from, _ := primitive.ObjectIDFromHex(requesterID)
	to, _ := primitive.ObjectIDFromHex(targetID)
	r := &models.FriendRequest{
		ID:          primitive.NewObjectID(),
		RequesterID: from,
		TargetID:    to,
		PairKey:     key,
		Status:      models.StatusPending,
		CreatedAt:   time.Now(),
	}
	f.reqs[r.ID.Hex()] = r
	cp := *r
	return &cp, nil
}

func (f *fakeFriendRepo) FindFriendRequest(_ context.Context, id string) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reqs[id]
	if !ok {
		return nil, fmt.Errorf("friend request: %w", models.ErrNotFound)
	}
	cp := *r
	return &cp, nil
}

func (f *fakeFriendRepo) AcceptFriendRequest(_ context.Context, id string) (*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reqs[id]
	if !ok || r.Status != models.StatusPending {
		return nil, models.ErrAlreadyAccepted
	}
	r.Status = models.StatusAccepted
	cp := *r
	return &cp, nil
}

func (f *fakeFriendRepo) DeleteFriendRequest(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reqs[id]; !ok {
		return fmt.Errorf("friend request: %w", models.ErrNotFound)
	}
	delete(f.reqs, id)
	return nil
}

func (f *fakeFriendRepo) ListFriendRequests(_ context.Context, userID string, dir models.Direction, status models.FriendStatus) ([]*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.FriendRequest, 0)
	for _, r := range f.reqs {
		side := r.RequesterID.Hex()
		if dir == models.Incoming {
			side = r.TargetID.Hex()
		}
		if side == userID && r.Status == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFriendRepo) ListAccepted(_ context.Context, userID string) ([]*models.FriendRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.FriendRequest, 0)
	for _, r := range f.reqs {
		if r.Status == models.StatusAccepted && r.Involves(userID) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// --- fake message repo ---

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []*models.Message
	err  error
}

func (f *fakeMessageRepo) CreateMessage(_ context.Context, m *models.Message) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	m.BeforeCreate()
	f.msgs = append(f.msgs, m)
	return m, nil
}

func (f *fakeMessageRepo) ListRoomMessages(_ context.Context, roomID string, limit, offset int64) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Message, 0)
	for _, m := range f.msgs {
		if m.RoomID == roomID {
			out = append(out, m)
		}
	}
	if offset >= int64(len(out)) {
		return []*models.Message{}, nil
	}
	out = out[offset:]
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- fake collaborators ---

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (f *fakeMailer) Enqueue(e mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMailer) last() mailer.Email {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type emitted struct {
	Room    string
	Event   string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakePublisher) Emit(room, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{Room: room, Event: event, Payload: payload})
}

type fakeImageStore struct {
	uploaded  []string
	destroyed []string
	uploadErr error
}

func (f *fakeImageStore) Upload(_ context.Context, path string) (*helpers.UploadedImage, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded = append(f.uploaded, path)
	n := len(f.uploaded)
	return &helpers.UploadedImage{
		URL:      fmt.Sprintf("https://img.test/%d.png", n),
		PublicID: fmt.Sprintf("talknet/avatars/%d", n),
	}, nil
}

func (f *fakeImageStore) Destroy(_ context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}
