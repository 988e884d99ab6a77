package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Honback/claude-code-api/internal/models"
)

// fakeStore is an in-memory stand-in for the postgres repositories. A
// single instance backs all repository interfaces so tests can observe
// cross-repository effects. Message timestamps are assigned from a
// monotonic fake clock so creation order is always strictly orderable.
type fakeStore struct {
	mu sync.Mutex

	now           time.Time
	conversations map[uuid.UUID]*models.Conversation
	messages      []*models.Message
	summaries     []*models.ConversationSummary
	usageLogs     []*models.UsageLog
	settings      map[string]*models.AppSetting
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:           time.Now().Truncate(time.Second),
		conversations: make(map[uuid.UUID]*models.Conversation),
		settings:      make(map[string]*models.AppSetting),
	}
}

func (f *fakeStore) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

// --- ConversationRepository ---

func (f *fakeStore) Create(ctx context.Context, c *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := f.tick()
	c.CreatedAt = now
	c.UpdatedAt = now
	f.conversations[c.ID] = c
	return nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Conversation
	for _, c := range f.conversations {
		if c.UserID == userID {
			copied := *c
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	return result, nil
}

func (f *fakeStore) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.conversations[id]; ok {
		c.Title = title
		c.UpdatedAt = f.tick()
	}
	return nil
}

func (f *fakeStore) Touch(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.conversations[id]; ok {
		c.UpdatedAt = f.tick()
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conversations, id)
	return nil
}

// --- MessageRepository ---

type fakeMessages struct{ *fakeStore }

func (f fakeMessages) Create(ctx context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = f.tick()
	copied := *m
	f.fakeStore.messages = append(f.fakeStore.messages, &copied)
	return nil
}

func (f fakeMessages) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.fakeStore.messages {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, nil
}

func (f fakeMessages) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.Message
	for _, m := range f.fakeStore.messages {
		if m.ConversationID == conversationID {
			copied := *m
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (f fakeMessages) ListAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) ([]*models.Message, error) {
	all, _ := f.ListByConversation(ctx, conversationID)
	var result []*models.Message
	for _, m := range all {
		if m.CreatedAt.After(after) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (f fakeMessages) SumTokens(ctx context.Context, conversationID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, m := range f.fakeStore.messages {
		if m.ConversationID == conversationID {
			sum += m.TokenCount
		}
	}
	return sum, nil
}

func (f fakeMessages) SumTokensAfter(ctx context.Context, conversationID uuid.UUID, after time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := 0
	for _, m := range f.fakeStore.messages {
		if m.ConversationID == conversationID && m.CreatedAt.After(after) {
			sum += m.TokenCount
		}
	}
	return sum, nil
}

// --- SummaryRepository ---

type fakeSummaries struct{ *fakeStore }

func (f fakeSummaries) Create(ctx context.Context, s *models.ConversationSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := f.tick()
	s.CreatedAt = now
	s.UpdatedAt = now
	copied := *s
	f.fakeStore.summaries = append(f.fakeStore.summaries, &copied)
	return nil
}

func (f fakeSummaries) Finalize(ctx context.Context, id uuid.UUID, status, summaryText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.fakeStore.summaries {
		if s.ID == id && s.Status == models.SummaryStatusInProgress {
			s.Status = status
			s.SummaryText = summaryText
			s.UpdatedAt = f.tick()
		}
	}
	return nil
}

func (f fakeSummaries) LatestCompleted(ctx context.Context, conversationID uuid.UUID) (*models.ConversationSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.ConversationSummary
	for _, s := range f.fakeStore.summaries {
		if s.ConversationID == conversationID && s.Status == models.SummaryStatusCompleted {
			if latest == nil || s.SummaryVersion > latest.SummaryVersion {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (f fakeSummaries) ExistsInProgress(ctx context.Context, conversationID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.fakeStore.summaries {
		if s.ConversationID == conversationID && s.Status == models.SummaryStatusInProgress {
			return true, nil
		}
	}
	return false, nil
}

// --- UsageLogRepository ---

type fakeUsageLogs struct{ *fakeStore }

func (f fakeUsageLogs) Create(ctx context.Context, entry *models.UsageLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = f.tick()
	copied := *entry
	f.fakeStore.usageLogs = append(f.fakeStore.usageLogs, &copied)
	return nil
}

func (f fakeUsageLogs) UserSummary(ctx context.Context, userID uuid.UUID, since time.Time) (*models.UsageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &models.UsageSummary{}
	var totalMs int64
	for _, l := range f.fakeStore.usageLogs {
		if l.UserID != userID || l.CreatedAt.Before(since) {
			continue
		}
		summary.TotalRequests++
		summary.TotalInputTokens += int64(l.InputTokens)
		summary.TotalOutputTokens += int64(l.OutputTokens)
		summary.TotalTokens += int64(l.TotalTokens)
		totalMs += l.ResponseTimeMs
	}
	if summary.TotalRequests > 0 {
		summary.AvgResponseTimeMs = float64(totalMs) / float64(summary.TotalRequests)
	}
	return summary, nil
}

func (f fakeUsageLogs) GlobalSummary(ctx context.Context, since time.Time) (*models.UsageSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	summary := &models.UsageSummary{}
	for _, l := range f.fakeStore.usageLogs {
		if l.CreatedAt.Before(since) {
			continue
		}
		summary.TotalRequests++
		summary.TotalTokens += int64(l.TotalTokens)
	}
	return summary, nil
}

func (f fakeUsageLogs) ByModel(ctx context.Context, since time.Time) ([]*models.ModelUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byModel := make(map[string]*models.ModelUsage)
	for _, l := range f.fakeStore.usageLogs {
		if l.CreatedAt.Before(since) {
			continue
		}
		usage, ok := byModel[l.Model]
		if !ok {
			usage = &models.ModelUsage{Model: l.Model}
			byModel[l.Model] = usage
		}
		usage.RequestCount++
		usage.InputTokens += int64(l.InputTokens)
		usage.OutputTokens += int64(l.OutputTokens)
		usage.TotalTokens += int64(l.TotalTokens)
	}
	var result []*models.ModelUsage
	for _, usage := range byModel {
		result = append(result, usage)
	}
	return result, nil
}

// --- SettingRepository ---

type fakeSettings struct{ *fakeStore }

func (f fakeSettings) Get(ctx context.Context, key string) (*models.AppSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.fakeStore.settings[key]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f fakeSettings) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fakeStore.settings[key] = &models.AppSetting{Key: key, Value: value, UpdatedAt: f.tick()}
	return nil
}

func (f fakeSettings) List(ctx context.Context) ([]*models.AppSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.AppSetting
	for _, s := range f.fakeStore.settings {
		copied := *s
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}
