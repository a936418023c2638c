package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"goeats/internal/domain"
	"goeats/internal/repository/state"
)

// ErrInvalidSession is returned when Login is called without a credential or user.
var ErrInvalidSession = errors.New("credential and user required")

type stateRepo interface {
	ReadRaw(key string) (string, bool, error)
	WriteRaw(key, value string) error
	EraseRaw(key string) error
}

// Store holds the authenticated identity and its bearer credential.
type Store struct {
	mu         sync.Mutex
	repo       stateRepo
	log        *slog.Logger
	user       *domain.User
	credential string
	generation uint64
}

// New rehydrates the session from repo. Unreadable or partial state is erased
// and the store starts unauthenticated.
func New(repo stateRepo, logger *slog.Logger) (*Store, error) {
	s := &Store{
		repo: repo,
		log:  logger.With(slog.String("component", "session")),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	token, hasToken, err := s.repo.ReadRaw(state.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	rawUser, hasUser, err := s.repo.ReadRaw(state.KeyUserData)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if !hasToken && !hasUser {
		return nil
	}

	var user domain.User
	switch {
	case !hasToken || !hasUser || token == "":
		s.log.Warn("discarding partial session", slog.Bool("token", hasToken), slog.Bool("user", hasUser))
	default:
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.log.Warn("discarding unreadable session user", slog.String("error", err.Error()))
			break
		}
		if isEmptyUser(user) {
			s.log.Warn("discarding empty session user")
			break
		}
		s.user = &user
		s.credential = token
		return nil
	}
	return s.erase()
}

// Login replaces the session with credential and user in one step.
func (s *Store) Login(credential string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login(credential, user)
}

// LoginAt is Login guarded by a generation read before the login exchange
// started. If the session moved on since then, the result is dropped with
// domain.ErrStale.
func (s *Store) LoginAt(generation uint64, credential string, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		return domain.ErrStale
	}
	return s.login(credential, user)
}

func (s *Store) login(credential string, user domain.User) error {
	if strings.TrimSpace(credential) == "" || isEmptyUser(user) {
		return ErrInvalidSession
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.repo.WriteRaw(state.KeyAuthToken, credential); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.repo.WriteRaw(state.KeyUserData, string(raw)); err != nil {
		return errors.Join(fmt.Errorf("persist user: %w", err), s.restoreToken())
	}
	s.user = &user
	s.credential = credential
	s.generation++
	s.log.Info("session started", slog.String("user_id", user.ID))
	return nil
}

// restoreToken puts the previous session's token back after a half-written
// login. If that fails too the session is dropped in memory and in storage.
func (s *Store) restoreToken() error {
	if s.user == nil || s.credential == "" {
		return s.repo.EraseRaw(state.KeyAuthToken)
	}
	if err := s.repo.WriteRaw(state.KeyAuthToken, s.credential); err != nil {
		s.log.Error("restore previous token failed, dropping session", slog.String("error", err.Error()))
		s.user = nil
		s.credential = ""
		s.generation++
		return errors.Join(fmt.Errorf("restore token: %w", err), s.erase())
	}
	return nil
}

// Logout clears the session and erases both persisted keys.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.credential = ""
	s.generation++
	return s.erase()
}

func (s *Store) erase() error {
	var errs []error
	if err := s.repo.EraseRaw(state.KeyAuthToken); err != nil {
		errs = append(errs, fmt.Errorf("erase token: %w", err))
	}
	if err := s.repo.EraseRaw(state.KeyUserData); err != nil {
		errs = append(errs, fmt.Errorf("erase user: %w", err))
	}
	return errors.Join(errs...)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.credential != ""
}

func (s *Store) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Credential returns the bearer token, or "" when unauthenticated.
func (s *Store) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.credential
}

// Generation changes on every Login and Logout. Callers compare it before and
// after a remote call to drop responses that belong to a previous session.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func isEmptyUser(u domain.User) bool {
	return strings.TrimSpace(u.ID) == "" && strings.TrimSpace(u.Email) == ""
}
