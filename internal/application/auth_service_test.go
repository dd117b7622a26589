package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
	"github.com/yudapratama/go-todo-auth/internal/domain/repository"
	"github.com/yudapratama/go-todo-auth/internal/infrastructure/supabase"
	"github.com/yudapratama/go-todo-auth/pkg/helpers"
)

// memRepo is an in-memory UserRepository that enforces the unique email
// constraint the way the database does.
type memRepo struct {
	mu          sync.Mutex
	byID        map[string]*entity.User
	byEmail     map[string]*entity.User
	createCalls int
}

func newMemRepo() *memRepo {
	return &memRepo{byID: map[string]*entity.User{}, byEmail: map[string]*entity.User{}}
}

func (r *memRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if _, exists := r.byEmail[u.Email]; exists {
		return repository.ErrDuplicateEmail
	}
	cp := *u
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *u
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	return nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.HashedPassword = hash
	u.RequiresPasswordReset = false
	return nil
}

func (r *memRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail)
}

// fakeProvider implements IdentityProvider with overridable behavior.
type fakeProvider struct {
	mu          sync.Mutex
	signUpCalls int

	signUpFn   func(email, password string, metadata map[string]any) (*supabase.SignUpResult, error)
	signInFn   func(email, password string) (*supabase.Session, error)
	verifyFn   func(email, token, otpType string) (*supabase.Session, error)
	resendFn   func(email, resendType string) error
	recoverFn  func(email string) error
	updatePwFn func(token, newPassword string) error
	getUserFn  func(token string) (*supabase.User, error)
}

func (p *fakeProvider) SignUp(_ context.Context, email, password string, metadata map[string]any) (*supabase.SignUpResult, error) {
	p.mu.Lock()
	p.signUpCalls++
	p.mu.Unlock()
	return p.signUpFn(email, password, metadata)
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*supabase.Session, error) {
	return p.signInFn(email, password)
}

func (p *fakeProvider) VerifyOTP(_ context.Context, email, token, otpType string) (*supabase.Session, error) {
	return p.verifyFn(email, token, otpType)
}

func (p *fakeProvider) Resend(_ context.Context, email, resendType string) error {
	return p.resendFn(email, resendType)
}

func (p *fakeProvider) ResetPasswordForEmail(_ context.Context, email string) error {
	return p.recoverFn(email)
}

func (p *fakeProvider) UpdateUserPassword(_ context.Context, token, newPassword string) error {
	return p.updatePwFn(token, newPassword)
}

func (p *fakeProvider) GetUser(_ context.Context, token string) (*supabase.User, error) {
	return p.getUserFn(token)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func activeSession(id, email string, metadata map[string]any) *supabase.Session {
	return &supabase.Session{
		AccessToken: "provider-token-" + id,
		TokenType:   "bearer",
		User:        &supabase.User{ID: id, Email: email, UserMetadata: metadata},
	}
}

func strptr(s string) *string { return &s }

func TestSignup_DuplicateLocalUserSkipsProvider(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), &entity.User{ID: "u1", Email: "a@x.com"}))

	provider := &fakeProvider{
		signUpFn: func(string, string, map[string]any) (*supabase.SignUpResult, error) {
			return nil, errors.New("should not be called")
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	_, err := svc.Signup(context.Background(), "a@x.com", "pw123456", nil)
	require.ErrorIs(t, err, ErrDuplicateUser)
	require.Equal(t, 0, provider.signUpCalls)
}

func TestSignup_ProviderRejection(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		signUpFn: func(string, string, map[string]any) (*supabase.SignUpResult, error) {
			return nil, &supabase.ProviderError{Status: 422, Message: "password too weak"}
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	_, err := svc.Signup(context.Background(), "a@x.com", "pw123456", nil)
	var pe *supabase.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "password too weak", pe.Message)
	require.Equal(t, 0, repo.count())
}

func TestSignup_PendingVerification(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		signUpFn: func(email, _ string, _ map[string]any) (*supabase.SignUpResult, error) {
			// Confirmation required: user but no session.
			return &supabase.SignUpResult{User: &supabase.User{ID: "ext-1", Email: email}}, nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	res, err := svc.Signup(context.Background(), "a@x.com", "pw123456", strptr("A"))
	require.NoError(t, err)
	require.True(t, res.Pending)
	require.Empty(t, res.AccessToken)
	require.NotEmpty(t, res.Message)

	// Pending is not an error: the local row must be kept.
	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, "ext-1", u.ID)
}

func TestSignup_ActiveSession(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		signUpFn: func(email, _ string, _ map[string]any) (*supabase.SignUpResult, error) {
			sess := activeSession("ext-2", email, nil)
			return &supabase.SignUpResult{User: sess.User, Session: sess}, nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	res, err := svc.Signup(context.Background(), "a@x.com", "pw123456", strptr("A"))
	require.NoError(t, err)
	require.False(t, res.Pending)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, "ext-2", res.User.ID)
	require.Equal(t, "a@x.com", res.User.Email)

	// The local row stores the bcrypt hash, never the plain password.
	ok, err := helpers.CheckPassword("pw123456", res.User.HashedPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLogin_ProviderFailureCollapsesToInvalidCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"unknown account", &supabase.ProviderError{Status: 400, Message: "invalid login credentials"}},
		{"wrong password", &supabase.ProviderError{Status: 401, Message: "invalid login credentials"}},
		{"network failure", errors.New("connection refused")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			provider := &fakeProvider{
				signInFn: func(string, string) (*supabase.Session, error) { return nil, tt.err },
			}
			svc := NewAuthService(newMemRepo(), provider, quietLogger())
			_, err := svc.Login(context.Background(), "a@x.com", "pw123456")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_SelfHealsMissingLocalRow(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		signInFn: func(email, _ string) (*supabase.Session, error) {
			return activeSession("ext-3", email, map[string]any{"full_name": "Jane Doe"}), nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	res, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, "ext-3", res.User.ID)
	require.NotNil(t, res.User.FullName)
	require.Equal(t, "Jane Doe", *res.User.FullName)
	require.Equal(t, 1, repo.count())

	// Second login reuses the row.
	res2, err := svc.Login(context.Background(), "a@x.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, res.User.ID, res2.User.ID)
	require.Equal(t, 1, repo.count())
	require.Equal(t, 1, repo.createCalls)
}

func TestLogin_ConcurrentSelfHealCreatesExactlyOneRow(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		signInFn: func(email, _ string) (*supabase.Session, error) {
			return activeSession("ext-4", email, nil), nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	ids := make([]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Login(context.Background(), "new@x.com", "pw123456")
			errs[i] = err
			if err == nil {
				ids[i] = res.User.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "ext-4", ids[i])
	}
	require.Equal(t, 1, repo.count())
}

func TestVerifyEmail_Failure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		verifyFn: func(string, string, string) (*supabase.Session, error) {
			return nil, &supabase.ProviderError{Status: 401, Message: "otp expired"}
		},
	}
	repo := newMemRepo()
	svc := NewAuthService(repo, provider, quietLogger())

	_, err := svc.VerifyEmail(context.Background(), "a@x.com", "123456", "email")
	var pe *supabase.ProviderError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, 0, repo.count())
}

func TestVerifyEmail_SelfHealNeverStoresOTPAsPassword(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		verifyFn: func(email, _, _ string) (*supabase.Session, error) {
			return activeSession("ext-5", email, nil), nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	const otp = "123456"
	res, err := svc.VerifyEmail(context.Background(), "a@x.com", otp, "email")
	require.NoError(t, err)

	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.True(t, u.RequiresPasswordReset)

	// The one-time code must not work as a local credential.
	ok, err := helpers.CheckPassword(otp, u.HashedPassword)
	require.NoError(t, err)
	require.False(t, ok)
	require.NotEmpty(t, res.AccessToken)
}

func TestNonEnumerationMessages(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		resendFn:  func(string, string) error { return nil },
		recoverFn: func(string) error { return nil },
	}
	svc := NewAuthService(newMemRepo(), provider, quietLogger())
	ctx := context.Background()

	m1, err := svc.ResendVerification(ctx, "exists@x.com", "signup")
	require.NoError(t, err)
	m2, err := svc.ResendVerification(ctx, "ghost@x.com", "signup")
	require.NoError(t, err)
	require.Equal(t, m1, m2)

	r1, err := svc.RequestPasswordReset(ctx, "exists@x.com")
	require.NoError(t, err)
	r2, err := svc.RequestPasswordReset(ctx, "ghost@x.com")
	require.NoError(t, err)
	require.Equal(t, r1, r2)
}

func TestConfirmPasswordReset_SyncsLocalHash(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	oldHash, err := helpers.HashPassword("old-password")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), &entity.User{
		ID: "ext-6", Email: "a@x.com", HashedPassword: oldHash, RequiresPasswordReset: true,
	}))

	provider := &fakeProvider{
		updatePwFn: func(token, _ string) error {
			if token != "reset-token" {
				return &supabase.ProviderError{Status: 401, Message: "bad token"}
			}
			return nil
		},
		getUserFn: func(token string) (*supabase.User, error) {
			return &supabase.User{ID: "ext-6", Email: "a@x.com"}, nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	msg, err := svc.ConfirmPasswordReset(context.Background(), "reset-token", "new-password-1")
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	u, err := repo.GetByID(context.Background(), "ext-6")
	require.NoError(t, err)
	require.False(t, u.RequiresPasswordReset)
	ok, err := helpers.CheckPassword("new-password-1", u.HashedPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestConfirmPasswordReset_ProviderFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		updatePwFn: func(string, string) error {
			return &supabase.ProviderError{Status: 401, Message: "reset token expired"}
		},
	}
	svc := NewAuthService(newMemRepo(), provider, quietLogger())

	_, err := svc.ConfirmPasswordReset(context.Background(), "stale", "new-password-1")
	var pe *supabase.ProviderError
	require.ErrorAs(t, err, &pe)
}

func TestCurrentUser_ProviderRejection(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		getUserFn: func(string) (*supabase.User, error) {
			return nil, &supabase.ProviderError{Status: 401, Message: "invalid token"}
		},
	}
	svc := NewAuthService(newMemRepo(), provider, quietLogger())

	_, err := svc.CurrentUser(context.Background(), "bad-token")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCurrentUser_MissingLocalRowDoesNotSelfHeal(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		getUserFn: func(string) (*supabase.User, error) {
			return &supabase.User{ID: "ext-7", Email: "ghost@x.com"}, nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	_, err := svc.CurrentUser(context.Background(), "valid-token")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, 0, repo.count())
}

func TestCurrentUser_Success(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), &entity.User{ID: "ext-8", Email: "a@x.com"}))
	provider := &fakeProvider{
		getUserFn: func(string) (*supabase.User, error) {
			return &supabase.User{ID: "ext-8", Email: "a@x.com"}, nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())

	u, err := svc.CurrentUser(context.Background(), "valid-token")
	require.NoError(t, err)
	require.Equal(t, "ext-8", u.ID)
}

func TestSignupThenLogin_SameIdentifier(t *testing.T) {
	t.Parallel()

	repo := newMemRepo()
	provider := &fakeProvider{
		signUpFn: func(email, _ string, _ map[string]any) (*supabase.SignUpResult, error) {
			sess := activeSession("ext-9", email, nil)
			return &supabase.SignUpResult{User: sess.User, Session: sess}, nil
		},
		signInFn: func(email, _ string) (*supabase.Session, error) {
			return activeSession("ext-9", email, nil), nil
		},
	}
	svc := NewAuthService(repo, provider, quietLogger())
	ctx := context.Background()

	signup, err := svc.Signup(ctx, "a@x.com", "pw123456", strptr("A"))
	require.NoError(t, err)
	require.NotEmpty(t, signup.AccessToken)
	require.Equal(t, "a@x.com", signup.User.Email)

	login, err := svc.Login(ctx, "a@x.com", "pw123456")
	require.NoError(t, err)
	require.Equal(t, signup.User.ID, login.User.ID)
}
