package application

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
	"github.com/yudapratama/go-todo-auth/internal/domain/repository"
	"github.com/yudapratama/go-todo-auth/internal/infrastructure/supabase"
	"github.com/yudapratama/go-todo-auth/pkg/helpers"
)

var (
	ErrDuplicateUser      = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnauthenticated    = errors.New("invalid authentication credentials")
)

// IdentityProvider is the external service of record for credentials and
// session issuance. Implemented by supabase.Client; faked in tests.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*supabase.SignUpResult, error)
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	VerifyOTP(ctx context.Context, email, token, otpType string) (*supabase.Session, error)
	Resend(ctx context.Context, email, resendType string) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	UpdateUserPassword(ctx context.Context, accessToken, newPassword string) error
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// AuthService reconciles the external identity provider with the local user
// store: the provider owns credentials and sessions, the local table mirrors
// the account. Rows are created on signup, or lazily on the first successful
// login/verification if the provider knows the account but we do not.
type AuthService struct {
	Repo     repository.UserRepository
	Provider IdentityProvider
	Logger   *logrus.Logger
}

func NewAuthService(repo repository.UserRepository, provider IdentityProvider, logger *logrus.Logger) *AuthService {
	return &AuthService{Repo: repo, Provider: provider, Logger: logger}
}

// AuthResult is the outcome of an authentication flow. Pending means the
// provider accepted the account but withheld a session until email
// confirmation; that is not an error and the local row is kept.
type AuthResult struct {
	AccessToken string
	TokenType   string
	User        *entity.User
	Pending     bool
	Message     string
}

// Signup registers the account with the provider and mirrors it locally.
func (s *AuthService) Signup(ctx context.Context, email, password string, fullName *string) (*AuthResult, error) {
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var metadata map[string]any
	if fullName != nil && *fullName != "" {
		metadata = map[string]any{"full_name": *fullName}
	}
	res, err := s.Provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("provider signup failed")
		return nil, err
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &entity.User{
		ID:             providerID(res.User),
		Email:          email,
		HashedPassword: hash,
		FullName:       fullName,
		IsActive:       true,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateUser
		}
		return nil, err
	}

	if res.Session == nil {
		return &AuthResult{
			User:    u,
			Pending: true,
			Message: "Signup successful. Please verify your email before logging in.",
		}, nil
	}
	return &AuthResult{AccessToken: res.Session.AccessToken, TokenType: "bearer", User: u}, nil
}

// Login authenticates against the provider. Every provider failure collapses
// to ErrInvalidCredentials so callers cannot probe which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	sess, err := s.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	u, err := s.ensureLocalUser(ctx, email, sess.User, func() (string, bool, error) {
		hash, err := helpers.HashPassword(password)
		return hash, false, err
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: sess.AccessToken, TokenType: "bearer", User: u}, nil
}

// VerifyEmail redeems a one-time code at the provider. The self-heal path has
// no user-chosen password to store, so the local row gets a random throwaway
// hash and is flagged as requiring a password reset.
func (s *AuthService) VerifyEmail(ctx context.Context, email, token, otpType string) (*AuthResult, error) {
	sess, err := s.Provider.VerifyOTP(ctx, email, token, otpType)
	if err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("email verification failed")
		return nil, err
	}

	u, err := s.ensureLocalUser(ctx, email, sess.User, func() (string, bool, error) {
		hash, err := helpers.HashPassword(uuid.NewString())
		return hash, true, err
	})
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: sess.AccessToken, TokenType: "bearer", User: u}, nil
}

// ResendVerification asks the provider to re-send a confirmation code. The
// success message never reveals whether the account exists.
func (s *AuthService) ResendVerification(ctx context.Context, email, resendType string) (string, error) {
	if err := s.Provider.Resend(ctx, email, resendType); err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("resend verification failed")
		return "", err
	}
	return "Verification email sent if the account exists.", nil
}

// RequestPasswordReset asks the provider to send a recovery email, with the
// same non-enumerating response as ResendVerification.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if err := s.Provider.ResetPasswordForEmail(ctx, email); err != nil {
		s.Logger.WithError(err).WithField("email", email).Warn("password reset request failed")
		return "", err
	}
	return "If the email exists, a reset link has been sent.", nil
}

// ConfirmPasswordReset updates the credential at the provider using the reset
// token as authorization, then mirrors the new hash locally so the stores do
// not drift. The local update is best effort.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (string, error) {
	if err := s.Provider.UpdateUserPassword(ctx, token, newPassword); err != nil {
		s.Logger.WithError(err).Warn("password reset confirmation failed")
		return "", err
	}

	if pu, err := s.Provider.GetUser(ctx, token); err == nil {
		hash, hashErr := helpers.HashPassword(newPassword)
		if hashErr == nil {
			if err := s.Repo.UpdatePassword(ctx, pu.ID, hash); err != nil && !errors.Is(err, repository.ErrNotFound) {
				s.Logger.WithError(err).WithField("user_id", pu.ID).Warn("local password sync failed")
			}
		}
	}
	return "Password updated successfully.", nil
}

// CurrentUser resolves the bearer token to a local user record. The provider
// is consulted first, before any database connection is acquired. A token the
// provider accepts but with no local row is ErrUserNotFound, never a signal
// to create one.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*entity.User, error) {
	pu, err := s.Provider.GetUser(ctx, accessToken)
	if err != nil {
		s.Logger.WithError(err).Debug("token validation failed")
		return nil, ErrUnauthenticated
	}

	u, err := s.Repo.GetByID(ctx, pu.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.Logger.WithField("user_id", pu.ID).Error("authenticated user missing locally")
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ensureLocalUser returns the local row for email, creating it from the
// provider's view when absent. credential supplies the hash to store and
// whether the row must be flagged for a password reset. Concurrent creators
// race on the unique email constraint; the loser re-reads instead of failing.
func (s *AuthService) ensureLocalUser(ctx context.Context, email string, pu *supabase.User, credential func() (string, bool, error)) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, needsReset, err := credential()
	if err != nil {
		return nil, err
	}
	u = &entity.User{
		ID:                    providerID(pu),
		Email:                 email,
		HashedPassword:        hash,
		FullName:              pu.FullName(),
		IsActive:              true,
		RequiresPasswordReset: needsReset,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return s.Repo.GetByEmail(ctx, email)
		}
		return nil, err
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "email": email}).Info("local user created from provider account")
	return u, nil
}

// providerID falls back to a fresh UUID if the provider response carried no
// identifier, so the local insert never fails on a null key.
func providerID(pu *supabase.User) string {
	if pu != nil && pu.ID != "" {
		return pu.ID
	}
	return uuid.NewString()
}
