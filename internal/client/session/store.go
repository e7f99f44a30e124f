// Package session owns the persisted authentication state of the client.
//
// A Store reads and writes the token, role and user keys of a kv repository
// and tells interested parties when they change. Several stores may share
// one repository (several windows or processes over one database file); a
// Notifier carries the change signal between them, while the writing store
// informs its own listeners directly.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/client/models"
	"github.com/dmitrijs2005/bidmarket/internal/client/repositories/kv"
	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/google/uuid"
)

var ErrStorageUnavailable = errors.New("session storage unavailable")

// Event is delivered to listeners after the session changed. Remote is true
// when another store made the change.
type Event struct {
	Session models.Session
	Remote  bool
}

type Listener func(Event)

type Store struct {
	repo     kv.TxRepository
	notifier Notifier
	origin   string
	log      logging.Logger

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	cancel    func()
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore returns a store over repo. A nil repo models storage that cannot
// be accessed: Load yields the absent session and writes fail.
func NewStore(repo kv.TxRepository, opts ...Option) *Store {
	s := &Store{
		repo:      repo,
		notifier:  nopNotifier{},
		origin:    uuid.NewString(),
		log:       logging.Nop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Origin identifies this store in change signals.
func (s *Store) Origin() string { return s.origin }

// Start begins listening for changes made by other stores.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	cancel, err := s.notifier.Subscribe(ctx, s.handleSignal)
	if err != nil {
		return fmt.Errorf("failed to watch session changes: %w", err)
	}
	s.cancel = cancel
	return nil
}

// Close stops listening for remote changes. The notifier itself is left
// open; it may be shared.
func (s *Store) Close() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Load returns the persisted session. Anything short of a complete,
// consistent triple yields the absent session.
func (s *Store) Load(ctx context.Context) models.Session {
	if s.repo == nil {
		return models.Session{}
	}

	kvs, err := s.repo.List(ctx)
	if err != nil {
		s.log.Warn(ctx, "session storage unreadable", "error", err)
		return models.Session{}
	}

	token := string(kvs[common.SessionTokenKey])
	rawRole := string(kvs[common.SessionRoleKey])
	rawUser := kvs[common.SessionUserKey]
	if token == "" || rawRole == "" || len(rawUser) == 0 {
		return models.Session{}
	}

	role, err := models.ParseRole(rawRole)
	if err != nil {
		s.log.Warn(ctx, "stored role is invalid", "role", rawRole)
		return models.Session{}
	}

	var profile models.UserSummary
	if err := json.Unmarshal(rawUser, &profile); err != nil {
		s.log.Warn(ctx, "stored profile is malformed", "error", err)
		return models.Session{}
	}
	if profile.Role != role {
		s.log.Warn(ctx, "stored profile role does not match", "role", role, "profile_role", profile.Role)
		return models.Session{}
	}

	return models.Session{Token: token, Role: role, Profile: &profile}
}

// Token returns the bearer token of the present session, or "".
func (s *Store) Token(ctx context.Context) string {
	return s.Load(ctx).Token
}

// Save persists token and profile in one transaction, then notifies.
func (s *Store) Save(ctx context.Context, token string, profile models.UserSummary) error {
	if token == "" {
		return fmt.Errorf("%w: empty token", common.ErrValidation)
	}
	if !profile.Role.Valid() {
		return fmt.Errorf("%w: profile role %q", common.ErrValidation, profile.Role)
	}
	if s.repo == nil {
		return ErrStorageUnavailable
	}

	rawUser, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, r kv.Repository) error {
		if err := r.Set(ctx, common.SessionTokenKey, []byte(token)); err != nil {
			return err
		}
		if err := r.Set(ctx, common.SessionRoleKey, []byte(profile.Role)); err != nil {
			return err
		}
		return r.Set(ctx, common.SessionUserKey, rawUser)
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	s.log.Debug(ctx, "session saved", "user_id", profile.ID, "role", profile.Role)
	s.changed(ctx)
	return nil
}

// Clear removes the three session keys, then notifies.
func (s *Store) Clear(ctx context.Context) error {
	if s.repo == nil {
		return ErrStorageUnavailable
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context, r kv.Repository) error {
		for _, k := range []string{common.SessionTokenKey, common.SessionRoleKey, common.SessionUserKey} {
			if err := r.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	s.log.Debug(ctx, "session cleared")
	s.changed(ctx)
	return nil
}

// DropExpired clears the stored session when its token is a JWT whose exp
// is before now. It reports whether anything was cleared.
func (s *Store) DropExpired(ctx context.Context, now time.Time) (bool, error) {
	sess := s.Load(ctx)
	if !sess.Present() || !Expired(sess.Token, now) {
		return false, nil
	}
	if err := s.Clear(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Subscribe registers l for change events. The returned function removes it
// and may be called more than once.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) changed(ctx context.Context) {
	if err := s.notifier.Publish(ctx, s.origin); err != nil {
		s.log.Warn(ctx, "failed to signal session change", "error", err)
	}
	s.broadcast(Event{Session: s.Load(ctx), Remote: false})
}

func (s *Store) handleSignal(origin string) {
	if origin == s.origin {
		return
	}
	ctx := context.Background()
	s.log.Debug(ctx, "session changed elsewhere", "origin", origin)
	s.broadcast(Event{Session: s.Load(ctx), Remote: true})
}

func (s *Store) broadcast(ev Event) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
