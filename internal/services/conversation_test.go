package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Honback/claude-code-api/internal/models"
)

func newTestConversationService(store *fakeStore) *ConversationService {
	return NewConversationService(store, fakeMessages{store}, fakeSummaries{store}, "claude-haiku-4-5-20251001")
}

func TestConversationCreateDefaults(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)

	conversation, err := svc.Create(context.Background(), uuid.New(), "", "")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultConversationTitle, conversation.Title)
	assert.Equal(t, "claude-haiku-4-5-20251001", conversation.Model)
	assert.NotEqual(t, uuid.Nil, conversation.ID)
}

func TestConversationList(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)
	userID := uuid.New()

	first, err := svc.Create(context.Background(), userID, "summarized one", "")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), userID, "plain one", "")
	require.NoError(t, err)

	// Another user's conversation stays out of the listing.
	_, err = svc.Create(context.Background(), uuid.New(), "not mine", "")
	require.NoError(t, err)

	message, err := svc.SaveMessage(context.Background(), first.ID, models.RoleUser, "12345678")
	require.NoError(t, err)
	seedCompletedSummary(t, store, first.ID, "compressed", message.ID, 1)

	items, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Most recently updated first; SaveMessage touched the first one.
	assert.Equal(t, first.ID, items[0].ID)
	assert.True(t, items[0].HasSummary)
	assert.Equal(t, 2, items[0].TotalTokens)

	assert.Equal(t, second.ID, items[1].ID)
	assert.False(t, items[1].HasSummary)
	assert.Zero(t, items[1].TotalTokens)
}

func TestConversationGet(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)
	userID := uuid.New()

	conversation, err := svc.Create(context.Background(), userID, "notes", "")
	require.NoError(t, err)
	_, err = svc.SaveMessage(context.Background(), conversation.ID, models.RoleUser, "question")
	require.NoError(t, err)
	_, err = svc.SaveMessage(context.Background(), conversation.ID, models.RoleAssistant, "answer")
	require.NoError(t, err)

	detail, err := svc.Get(context.Background(), conversation.ID, userID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, "question", detail.Messages[0].Content)
	assert.Equal(t, "answer", detail.Messages[1].Content)
	assert.Equal(t, EstimateTokens("question")+EstimateTokens("answer"), detail.TotalTokens)
}

func TestConversationOwnership(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)
	owner := uuid.New()

	conversation, err := svc.Create(context.Background(), owner, "private", "")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), conversation.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(context.Background(), uuid.New(), owner)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Delete(context.Background(), conversation.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestConversationRename(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)
	userID := uuid.New()

	conversation, err := svc.Create(context.Background(), userID, "old name", "")
	require.NoError(t, err)

	renamed, err := svc.Rename(context.Background(), conversation.ID, userID, "new name")
	require.NoError(t, err)
	assert.Equal(t, "new name", renamed.Title)

	stored, err := store.GetByID(context.Background(), conversation.ID)
	require.NoError(t, err)
	assert.Equal(t, "new name", stored.Title)

	// Blank input keeps the current title.
	kept, err := svc.Rename(context.Background(), conversation.ID, userID, "")
	require.NoError(t, err)
	assert.Equal(t, "new name", kept.Title)
}

func TestConversationDelete(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)
	userID := uuid.New()

	conversation, err := svc.Create(context.Background(), userID, "temp", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), conversation.ID, userID))

	_, err = svc.Get(context.Background(), conversation.ID, userID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveMessageEstimatesTokens(t *testing.T) {
	store := newFakeStore()
	svc := newTestConversationService(store)
	userID := uuid.New()

	conversation, err := svc.Create(context.Background(), userID, "", "")
	require.NoError(t, err)
	before, err := store.GetByID(context.Background(), conversation.ID)
	require.NoError(t, err)

	message, err := svc.SaveMessage(context.Background(), conversation.ID, models.RoleUser, "Hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, message.TokenCount)

	after, err := store.GetByID(context.Background(), conversation.ID)
	require.NoError(t, err)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
}
