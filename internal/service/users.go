package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/Shivanand-hulikatti/smartevent/internal/validator"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TokenIssuer signs a bearer token for a user.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// UserService handles sign-up, email login and the current-user lookup.
// There are no credentials: a user is identified by email alone.
type UserService struct {
	users            repository.UserStore
	issuer           TokenIssuer
	validate         *validator.Validator
	allowAdminSignup bool
	logger           zerolog.Logger
	now              func() time.Time
}

// NewUserService constructs a UserService. When allowAdminSignup is false the
// isAdmin flag of self-registration is ignored.
func NewUserService(users repository.UserStore, issuer TokenIssuer, allowAdminSignup bool, logger zerolog.Logger) *UserService {
	return &UserService{
		users:            users,
		issuer:           issuer,
		validate:         validator.New(),
		allowAdminSignup: allowAdminSignup,
		logger:           logger.With().Str("component", "users").Logger(),
		now:              time.Now,
	}
}

// Login issues a token for the user registered under email.
func (s *UserService) Login(ctx context.Context, email string) (model.Result[*model.Session], error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer span.End()

	req := model.LoginRequest{Email: normalizeEmail(email)}
	if err := s.validate.Struct(req); err != nil {
		return invalid[*model.Session](span, err), nil
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return reject[*model.Session](span, model.ReasonUserNotFound), nil
		}
		return model.Result[*model.Session]{}, spanError(span, fmt.Errorf("load user: %w", err))
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	session, err := s.session(user)
	if err != nil {
		return model.Result[*model.Session]{}, spanError(span, err)
	}
	loggerFor(ctx, s.logger, "users").Info().Str("user_id", user.ID).Msg("user logged in")
	return model.Ok(session), nil
}

// RegisterUser creates a user, or returns the existing user with that email
// together with a fresh token.
func (s *UserService) RegisterUser(ctx context.Context, req model.RegisterUserRequest) (model.Result[*model.Session], error) {
	ctx, span := tracer.Start(ctx, "UserService.RegisterUser")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return invalid[*model.Session](span, err), nil
	}

	user, err := s.findOrCreate(ctx, req.Name, req.Email, req.IsAdmin && s.allowAdminSignup)
	if err != nil {
		return model.Result[*model.Session]{}, spanError(span, err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID))

	session, err := s.session(user)
	if err != nil {
		return model.Result[*model.Session]{}, spanError(span, err)
	}
	return model.Ok(session), nil
}

// CurrentUser returns the stored record of the caller.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (model.Result[*model.User], error) {
	ctx, span := tracer.Start(ctx, "UserService.CurrentUser", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return reject[*model.User](span, model.ReasonUserNotFound), nil
		}
		return model.Result[*model.User]{}, spanError(span, fmt.Errorf("load user: %w", err))
	}
	return model.Ok(user), nil
}

// Logout always succeeds. Tokens are stateless; the client discards its copy.
func (s *UserService) Logout(ctx context.Context, userID string) model.Result[bool] {
	loggerFor(ctx, s.logger, "users").Info().Str("user_id", userID).Msg("user logged out")
	return model.Ok(true)
}

// EnsureAdmin makes sure an admin account with email exists. An existing
// non-admin account with that email is left as it is and reported.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("admin email is required")
	}
	user, err := s.findOrCreate(ctx, strings.TrimSpace(name), email, true)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		s.logger.Warn().Str("email", email).Msg("bootstrap admin email belongs to a non-admin user")
		return user, nil
	}
	s.logger.Info().Str("user_id", user.ID).Str("email", email).Msg("admin user ready")
	return user, nil
}

func (s *UserService) findOrCreate(ctx context.Context, name, email string, isAdmin bool) (*model.User, error) {
	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("load user: %w", err)
	}

	user := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsAdmin:   isAdmin,
		CreatedAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			// Lost a race with a concurrent sign-up for the same email.
			existing, err := s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("load user: %w", err)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	loggerFor(ctx, s.logger, "users").Info().
		Str("user_id", user.ID).
		Bool("is_admin", user.IsAdmin).
		Msg("user created")
	return user, nil
}

func (s *UserService) session(user *model.User) (*model.Session, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.Session{Token: token, User: user}, nil
}
