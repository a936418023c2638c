package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"goeats/internal/domain"
	"goeats/internal/remote"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidCredentials is returned when the API rejects email/password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput wraps validation failures of login and register forms.
	ErrInvalidInput = errors.New("invalid input")
)

var validate = validator.New()

type authAPI interface {
	Login(ctx context.Context, email, password string) (*remote.LoginResponse, error)
	Register(ctx context.Context, in remote.RegisterInput) (*domain.User, error)
}

type sessionStore interface {
	LoginAt(generation uint64, credential string, user domain.User) error
	Logout() error
	Generation() uint64
}

// Service runs the login exchange against the API and records the result in
// the session store.
type Service struct {
	api     authAPI
	session sessionStore
	log     *slog.Logger
}

func New(api authAPI, session sessionStore, logger *slog.Logger) *Service {
	return &Service{api: api, session: session, log: logger}
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for a token. If the session changed while the
// exchange was in flight the response is dropped with domain.ErrStale.
func (s *Service) Login(ctx context.Context, in LoginInput) (*domain.User, error) {
	const op = "auth.Service.Login"
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	generation := s.session.Generation()
	resp, err := s.api.Login(ctx, in.Email, in.Password)
	if err != nil {
		var statusErr *remote.StatusError
		if errors.As(err, &statusErr) && (statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusBadRequest) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.session.LoginAt(generation, resp.Token, resp.User); err != nil {
		if errors.Is(err, domain.ErrStale) {
			s.log.Warn("dropping login response for a session that changed", slog.String("op", op))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &resp.User, nil
}

// Register creates an account. It does not log the user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	user, err := s.api.Register(ctx, remote.RegisterInput{Name: in.Name, Email: in.Email, Password: in.Password})
	if err != nil {
		return nil, fmt.Errorf("auth.Service.Register: %w", err)
	}
	return user, nil
}

func (s *Service) Logout() error {
	return s.session.Logout()
}
