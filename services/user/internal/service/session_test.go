package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkg_hash "github.com/Skotchmaster/marketplace/pkg/hash"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
	"github.com/Skotchmaster/marketplace/services/user/internal/domain"
	"github.com/Skotchmaster/marketplace/services/user/internal/models"
	"github.com/Skotchmaster/marketplace/services/user/internal/repo"
)

func newTestSessionService(t *testing.T) *SessionService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Credential{}, &models.OutboxMessage{}))

	return &SessionService{
		Repo:  &repo.GormRepo{DB: db},
		Codec: tokens.NewCodec([]byte("test-secret"), 15, 60),
	}
}

func createTestUser(t *testing.T, svc *SessionService, email, password string) *models.User {
	t.Helper()

	pwHash, err := pkg_hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		ID:           uuid.New(),
		Name:         "test user",
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, svc.Repo.CreateUser(context.Background(), user))
	return user
}

func TestSessionService_Register_IssuesPairAndCredential(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)

	cred, err := svc.Repo.CredentialByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, cred.Token)
	assert.False(t, cred.Revoked)
}

func TestSessionService_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "other", "alice@example.com", "Secret456")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestSessionService_Login_Success(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "bob@example.com", "Secret123")

	pair, err := svc.Login(ctx, "bob@example.com", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, pair)

	cred, err := svc.Repo.CredentialByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, cred.Token)
}

func TestSessionService_Login_UnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)

	_, err := svc.Login(context.Background(), "ghost@example.com", "Secret123")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_Login_WrongPassword_DoesNotTouchCredential(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "bob@example.com", "Secret123")

	pair, err := svc.Login(ctx, "bob@example.com", "Secret123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// The live session must survive the failed attempt.
	cred, err := svc.Repo.CredentialByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, cred.Token)
	assert.False(t, cred.Revoked)

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestSessionService_Refresh_RotatesExactlyOnce(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	createTestUser(t, svc, "carol@example.com", "Secret123")

	loginPair, err := svc.Login(ctx, "carol@example.com", "Secret123")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, loginPair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, loginPair.RefreshToken, refreshed.RefreshToken)

	// The login-issued token was rotated away; a second use must fail even
	// though its embedded expiry has not elapsed.
	_, err = svc.Refresh(ctx, loginPair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	// The rotated token works.
	_, err = svc.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestSessionService_Refresh_GarbageToken(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionService_Refresh_UserGone(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "dave@example.com", "Secret123")

	pair, err := svc.Login(ctx, "dave@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Delete(&models.User{}, "id = ?", user.ID).Error)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_Refresh_RevokedCredential(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "erin@example.com", "Secret123")

	pair, err := svc.Login(ctx, "erin@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Repo.RevokeCredential(ctx, user.ID))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionService_Refresh_StoredExpiryAuthoritative(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "frank@example.com", "Secret123")

	pair, err := svc.Login(ctx, "frank@example.com", "Secret123")
	require.NoError(t, err)

	// Age the stored record; the token itself is still within its own expiry.
	require.NoError(t, svc.Repo.DB.Model(&models.Credential{}).
		Where("user_id = ?", user.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionService_Revoke(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "grace@example.com", "Secret123")

	_, err := svc.Login(ctx, "grace@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, user.ID))

	cred, err := svc.Repo.CredentialByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cred.Revoked)

	// Idempotent: a second revoke succeeds and the credential stays revoked.
	require.NoError(t, svc.Revoke(ctx, user.ID))
	cred, err = svc.Repo.CredentialByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cred.Revoked)
}

func TestSessionService_Revoke_UnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)

	err := svc.Revoke(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_LogoutByToken(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "heidi@example.com", "Secret123")

	pair, err := svc.Login(ctx, "heidi@example.com", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.LogoutByToken(ctx, pair.RefreshToken))

	cred, err := svc.Repo.CredentialByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, cred.Revoked)

	// Unknown token is a no-op.
	require.NoError(t, svc.LogoutByToken(ctx, "unknown-token"))
}

func TestSessionService_SingleCredentialRowInvariant(t *testing.T) {
	t.Parallel()

	svc := newTestSessionService(t)
	ctx := context.Background()
	user := createTestUser(t, svc, "ivan@example.com", "Secret123")

	pair, err := svc.Login(ctx, "ivan@example.com", "Secret123")
	require.NoError(t, err)
	pair, err = svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = svc.Login(ctx, "ivan@example.com", "Secret123")
	require.NoError(t, err)

	var count int64
	require.NoError(t, svc.Repo.DB.Model(&models.Credential{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
