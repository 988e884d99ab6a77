package auth

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Honback/claude-code-api/internal/models"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

type fakeAPIKeyRepo struct {
	keys map[uuid.UUID]*models.APIKey
}

func newFakeAPIKeyRepo() *fakeAPIKeyRepo {
	return &fakeAPIKeyRepo{keys: make(map[uuid.UUID]*models.APIKey)}
}

func (f *fakeAPIKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	key.CreatedAt = time.Now()
	copied := *key
	f.keys[key.ID] = &copied
	return nil
}

func (f *fakeAPIKeyRepo) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	for _, k := range f.keys {
		if k.KeyHash == hash && k.RevokedAt == nil {
			copied := *k
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeAPIKeyRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	var keys []*models.APIKey
	for _, k := range f.keys {
		if k.UserID == userID {
			copied := *k
			keys = append(keys, &copied)
		}
	}
	return keys, nil
}

func (f *fakeAPIKeyRepo) Revoke(ctx context.Context, userID, id uuid.UUID) error {
	if k, ok := f.keys[id]; ok && k.UserID == userID && k.RevokedAt == nil {
		now := time.Now()
		k.RevokedAt = &now
	}
	return nil
}

func newTestService() *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewService(newFakeUserRepo(), newFakeAPIKeyRepo(), NewJWTService("test-secret", "claude-platform"), log)
}

func TestSignupAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, token, err := svc.Signup(ctx, "dev@example.com", "hunter22well", "Dev")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.NotEqual(t, "hunter22well", user.PasswordHash)

	parsed, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed)

	loggedIn, token, err := svc.Login(ctx, "dev@example.com", "hunter22well")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
}

func TestSignupRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "dev@example.com", "short", "Dev")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, _, err = svc.Signup(ctx, "dev@example.com", "hunter22well", "Dev")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "dev@example.com", "anotherpass", "Dev Two")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "dev@example.com", "hunter22well", "Dev")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "dev@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "hunter22well")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAPIKeyLifecycle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	key, plaintext, err := svc.CreateAPIKey(ctx, userID, "ci key")
	require.NoError(t, err)
	assert.True(t, ValidateAPIKeyFormat(plaintext))
	assert.Equal(t, "ci key", key.Name)

	resolved, err := svc.ValidateAPIKey(ctx, plaintext)
	require.NoError(t, err)
	assert.Equal(t, userID, resolved)

	_, err = svc.ValidateAPIKey(ctx, "cp_"+strings.Repeat("x", 30))
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	_, err = svc.ValidateAPIKey(ctx, "bogus")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	require.NoError(t, svc.RevokeAPIKey(ctx, userID, key.ID))
	_, err = svc.ValidateAPIKey(ctx, plaintext)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestEnsureDefaultUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, bootstrapKey, err := svc.EnsureDefaultUser(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first)

	// The bootstrap key is the account's only credential and it must
	// resolve back to the default user.
	require.NotEmpty(t, bootstrapKey)
	assert.True(t, ValidateAPIKeyFormat(bootstrapKey))
	resolved, err := svc.ValidateAPIKey(ctx, bootstrapKey)
	require.NoError(t, err)
	assert.Equal(t, first, resolved)

	// Idempotent across restarts; the key is never reissued.
	second, repeatKey, err := svc.EnsureDefaultUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Empty(t, repeatKey)

	keys, err := svc.ListAPIKeys(ctx, first)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "bootstrap", keys[0].Name)
}
