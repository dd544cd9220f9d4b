package memberauth_test

import (
	"context"
	"testing"
	"time"

	auth "github.com/assemblyhub/memberauth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-featuregate/gate"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeatureGate struct {
	enabled map[string]bool
	calls   []string
	err     error
}

func (s *stubFeatureGate) Enabled(ctx context.Context, key string, opts ...gate.ResolveOption) (bool, error) {
	s.calls = append(s.calls, key)
	if s.err != nil {
		return false, s.err
	}
	if s.enabled == nil {
		return true, nil
	}
	enabled, ok := s.enabled[key]
	if !ok {
		return true, nil
	}
	return enabled, nil
}

func setupRepoManager(t *testing.T) auth.RepositoryManager {
	t.Helper()
	_, bunDB := setupUsersRepo(t)
	return auth.NewRepositoryManager(bunDB)
}

func TestRegisterUserHandlerCreatesAccount(t *testing.T) {
	repo := setupRepoManager(t)
	ctx := context.Background()

	var registered *auth.User
	handler := auth.NewRegisterUserHandler(repo)

	err := handler.Execute(ctx, auth.RegisterUserMessage{
		Username:     "pepe",
		Email:        "pepe@example.com",
		Password:     testPassword,
		Tier:         auth.TierCommunity,
		OnRegistered: func(user *auth.User) { registered = user },
	})
	require.NoError(t, err)

	require.NotNil(t, registered)
	assert.NotEqual(t, uuid.Nil, registered.ID)
	assert.True(t, registered.IsActive)
	assert.False(t, registered.EmailVerified)
	assert.Equal(t, auth.TierCommunity, registered.Tier)

	// the password is stored as a hash that verifies
	assert.NotEqual(t, testPassword, registered.PasswordHash)
	assert.NoError(t, auth.ComparePasswordAndHash(testPassword, registered.PasswordHash))

	found, err := repo.Users().GetActiveByID(ctx, registered.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "pepe", found.Username)
}

func TestRegisterUserHandlerDerivesUsernameFromEmail(t *testing.T) {
	repo := setupRepoManager(t)

	var registered *auth.User
	err := auth.NewRegisterUserHandler(repo).Execute(context.Background(), auth.RegisterUserMessage{
		Email:        "pepe@example.com",
		Password:     testPassword,
		OnRegistered: func(user *auth.User) { registered = user },
	})
	require.NoError(t, err)

	require.NotNil(t, registered)
	assert.Equal(t, "pepe", registered.Username)
	assert.Equal(t, auth.TierNone, registered.Tier)
}

func TestRegisterUserHandlerRejectsWeakPassword(t *testing.T) {
	repo := setupRepoManager(t)

	err := auth.NewRegisterUserHandler(repo).Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "pepe@example.com",
		Password: "abc123",
	})
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, errors.CategoryValidation, richErr.Category)

	_, lookupErr := repo.Users().GetByLoginIdentifier(context.Background(), "pepe@example.com")
	assert.Error(t, lookupErr)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	repo := setupRepoManager(t)
	ctx := context.Background()
	handler := auth.NewRegisterUserHandler(repo)

	message := auth.RegisterUserMessage{
		Username: "pepe",
		Email:    "pepe@example.com",
		Password: testPassword,
	}

	require.NoError(t, handler.Execute(ctx, message))
	assert.Error(t, handler.Execute(ctx, message))
}

func TestRegisterUserHandlerSendsVerificationEmail(t *testing.T) {
	repo := setupRepoManager(t)
	svc := newTestTokenService()
	mailer := &captureMailer{}

	handler := auth.NewRegisterUserHandler(repo).
		WithVerificationMailer(svc, mailer)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "pepe@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	require.Len(t, mailer.tokens, 1)
	require.Len(t, mailer.users, 1)

	claims, err := svc.Validate(mailer.tokens[0])
	require.NoError(t, err)
	assert.Equal(t, auth.TokenTypeVerifyEmail, claims.Type())
	assert.Equal(t, mailer.users[0].ID.String(), claims.UserID())

	// a verification token never doubles as an access token
	assert.Error(t, svc.VerifyType(claims, auth.TokenTypeAccess))
}

func TestRegisterUserHandlerMailerFailureDoesNotFailSignup(t *testing.T) {
	repo := setupRepoManager(t)
	mailer := &captureMailer{err: errors.New("smtp down", errors.CategoryOperation)}

	handler := auth.NewRegisterUserHandler(repo).
		WithVerificationMailer(newTestTokenService(), mailer)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "pepe@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	_, err = repo.Users().GetByLoginIdentifier(context.Background(), "pepe@example.com")
	assert.NoError(t, err)
}

func TestRegisterUserHandlerFeatureGateDeniesSignup(t *testing.T) {
	stubGate := &stubFeatureGate{
		enabled: map[string]bool{
			gate.FeatureUsersSignup: false,
		},
	}

	handler := auth.NewRegisterUserHandler(nil).WithFeatureGate(stubGate)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{})
	require.ErrorIs(t, err, auth.ErrSignupDisabled)
	require.Equal(t, []string{gate.FeatureUsersSignup}, stubGate.calls)
}

func TestRegisterUserHandlerFeatureGateAllowsSignup(t *testing.T) {
	repo := setupRepoManager(t)
	stubGate := &stubFeatureGate{}

	handler := auth.NewRegisterUserHandler(repo).WithFeatureGate(stubGate)

	err := handler.Execute(context.Background(), auth.RegisterUserMessage{
		Email:    "pepe@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, []string{gate.FeatureUsersSignup}, stubGate.calls)
}

func TestVerifyEmailHandlerMarksVerified(t *testing.T) {
	repo := setupRepoManager(t)
	svc := newTestTokenService()
	mailer := &captureMailer{}
	ctx := context.Background()

	err := auth.NewRegisterUserHandler(repo).
		WithVerificationMailer(svc, mailer).
		Execute(ctx, auth.RegisterUserMessage{
			Email:    "pepe@example.com",
			Password: testPassword,
		})
	require.NoError(t, err)
	require.Len(t, mailer.tokens, 1)

	err = auth.NewVerifyEmailHandler(repo, svc).Execute(ctx, auth.VerifyEmailMessage{
		Token: mailer.tokens[0],
	})
	require.NoError(t, err)

	user, err := repo.Users().GetByLoginIdentifier(ctx, "pepe@example.com")
	require.NoError(t, err)
	assert.True(t, user.EmailVerified)
}

func TestVerifyEmailHandlerRejectsAccessToken(t *testing.T) {
	repo := setupRepoManager(t)
	svc := newTestTokenService()
	ctx := context.Background()

	var registered *auth.User
	err := auth.NewRegisterUserHandler(repo).Execute(ctx, auth.RegisterUserMessage{
		Email:        "pepe@example.com",
		Password:     testPassword,
		OnRegistered: func(user *auth.User) { registered = user },
	})
	require.NoError(t, err)

	access, err := svc.Issue(registered.ID.String(), auth.TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	err = auth.NewVerifyEmailHandler(repo, svc).Execute(ctx, auth.VerifyEmailMessage{Token: access})
	require.Error(t, err)

	user, err := repo.Users().GetByLoginIdentifier(ctx, "pepe@example.com")
	require.NoError(t, err)
	assert.False(t, user.EmailVerified)
}

func TestVerifyEmailHandlerRejectsGarbageToken(t *testing.T) {
	repo := setupRepoManager(t)

	err := auth.NewVerifyEmailHandler(repo, newTestTokenService()).
		Execute(context.Background(), auth.VerifyEmailMessage{Token: "not-a-token"})
	require.Error(t, err)
	assert.True(t, auth.IsMalformedError(err))
}

func TestVerifyEmailHandlerUnknownSubject(t *testing.T) {
	repo := setupRepoManager(t)
	svc := newTestTokenService()

	token, err := svc.Issue(uuid.NewString(), auth.TokenTypeVerifyEmail, time.Minute)
	require.NoError(t, err)

	err = auth.NewVerifyEmailHandler(repo, svc).
		Execute(context.Background(), auth.VerifyEmailMessage{Token: token})
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestVerifyEmailHandlerExpiredToken(t *testing.T) {
	repo := setupRepoManager(t)
	svc := newTestTokenService()

	token, err := svc.Issue(uuid.NewString(), auth.TokenTypeVerifyEmail, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	err = auth.NewVerifyEmailHandler(repo, svc).
		Execute(context.Background(), auth.VerifyEmailMessage{Token: token})
	require.Error(t, err)
	assert.True(t, auth.IsTokenExpiredError(err))
}
