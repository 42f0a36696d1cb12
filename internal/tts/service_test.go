// Package tts_test tests the synthesis orchestrator against mock
// collaborators.
package tts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedtape/tts-service/internal/core"
	"github.com/feedtape/tts-service/internal/language"
	"github.com/feedtape/tts-service/internal/quota"
	"github.com/feedtape/tts-service/internal/tts"
)

var errStoreDown = errors.New("store unavailable")

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "tts-test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Errorf("failed to close logger: %v", closeErr)
		}
	})

	return log
}

type mockUserStore struct {
	users map[uuid.UUID]core.User
	err   error
}

func (m *mockUserStore) FindByID(_ context.Context, id uuid.UUID) (core.User, error) {
	if m.err != nil {
		return core.User{}, m.err
	}

	user, ok := m.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}

	return user, nil
}

type mockUsageStore struct {
	usedToday  int
	increments []int
	err        error
}

func (m *mockUsageStore) TodayUsage(_ context.Context, id uuid.UUID) (core.UsageRecord, error) {
	if m.err != nil {
		return core.UsageRecord{}, m.err
	}

	return core.UsageRecord{
		UserID:         id,
		Date:           core.UsageDate(time.Now()),
		CharactersUsed: m.usedToday,
	}, nil
}

func (m *mockUsageStore) IncrementUsage(_ context.Context, _ uuid.UUID, characters int) error {
	m.increments = append(m.increments, characters)

	return nil
}

type mockSynthProvider struct {
	calls int
	err   error
}

func (m *mockSynthProvider) Name() string { return "mock" }

func (m *mockSynthProvider) MaxBatchSize() int { return 3000 }

func (m *mockSynthProvider) SynthesizeBatch(
	_ context.Context,
	text string,
	_ language.Code,
) ([]byte, error) {
	m.calls++

	if m.err != nil {
		return nil, m.err
	}

	return []byte("audio:" + text[:min(8, len(text))]), nil
}

type mockCache struct {
	entries map[string]core.SynthesisResult
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]core.SynthesisResult{}}
}

func (m *mockCache) Get(link string) (core.SynthesisResult, bool) {
	result, ok := m.entries[link]

	return result, ok
}

func (m *mockCache) Set(link string, result core.SynthesisResult) {
	m.entries[link] = result
}

// fixture bundles the orchestrator with its mocks for assertions.
type fixture struct {
	service  *tts.Service
	users    *mockUserStore
	usage    *mockUsageStore
	provider *mockSynthProvider
	cache    *mockCache
	userID   uuid.UUID
}

func newFixture(t *testing.T, user core.User, cached bool) *fixture {
	t.Helper()

	users := &mockUserStore{users: map[uuid.UUID]core.User{user.ID: user}}
	usage := &mockUsageStore{}
	synthProvider := &mockSynthProvider{}

	var resultCache *mockCache

	var cacheArg core.ResultCache

	if cached {
		resultCache = newMockCache()
		cacheArg = resultCache
	}

	log := newTestLogger(t)

	return &fixture{
		service: tts.NewService(
			users,
			usage,
			quota.NewGuard(quota.DefaultPolicy()),
			language.NewDetector(language.English, log),
			synthProvider,
			cacheArg,
			log,
		),
		users:    users,
		usage:    usage,
		provider: synthProvider,
		cache:    resultCache,
		userID:   user.ID,
	}
}

func freeUser() core.User {
	return core.User{
		ID:               uuid.New(),
		SubscriptionTier: core.TierFree,
		TrialStartedAt:   time.Now().Add(-24 * time.Hour),
	}
}

const articleText = "This is an English article about technology. " +
	"It has several sentences. The synthesis pipeline reads them all aloud."

func TestSynthesize_FullPipeline(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), false)

	result, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, "https://example.com/a")
	require.NoError(t, err)

	assert.Equal(t, language.English, result.Language)
	assert.Equal(t, len(articleText), result.CharCount)
	assert.InDelta(t, float64(len(articleText))/1000.0, result.DurationMinutes, 1e-9)
	assert.NotEmpty(t, result.Audio)
	assert.Equal(t, []int{len(articleText)}, fix.usage.increments)
}

func TestSynthesize_CacheHitChargesOnce(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), true)
	link := "https://example.com/article"

	first, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, link)
	require.NoError(t, err)

	second, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, link)
	require.NoError(t, err)

	// The replay is byte-identical, free, and never reaches the provider.
	assert.Equal(t, first.Audio, second.Audio)
	assert.Equal(t, first.Language, second.Language)
	assert.Len(t, fix.usage.increments, 1)
	assert.Equal(t, 1, fix.provider.calls)
}

func TestSynthesize_ProviderFailureLeavesUsageUnchanged(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), true)
	fix.provider.err = errStoreDown

	_, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, "https://example.com/a")
	require.Error(t, err)

	assert.Empty(t, fix.usage.increments)
	assert.Empty(t, fix.cache.entries)
}

func TestSynthesize_QuotaRejectedBeforeProviderCall(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), false)
	fix.usage.usedToday = quota.DefaultFreeDailyCharacters

	_, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPaymentRequired)

	var quotaErr *core.QuotaError

	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, quota.DefaultFreeDailyCharacters, quotaErr.Used)
	assert.Equal(t, 0, fix.provider.calls)
	assert.Empty(t, fix.usage.increments)
}

func TestSynthesize_ExpiredTrialRejected(t *testing.T) {
	t.Parallel()

	user := freeUser()
	user.TrialStartedAt = time.Now().Add(-8 * 24 * time.Hour)
	fix := newFixture(t, user, false)

	_, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, "")
	require.ErrorIs(t, err, core.ErrTrialExpired)
	assert.Equal(t, 0, fix.provider.calls)
}

func TestSynthesize_EmptyAfterNormalization(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), false)

	_, err := fix.service.Synthesize(
		context.Background(), fix.userID, "  https://only-a-link.example.com  ", "")
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, 0, fix.provider.calls)
	assert.Empty(t, fix.usage.increments)
}

func TestSynthesize_UnknownUser(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), false)

	_, err := fix.service.Synthesize(
		context.Background(), uuid.New(), articleText, "")
	require.ErrorIs(t, err, core.ErrUserNotFound)
	assert.Equal(t, 0, fix.provider.calls)
}

func TestSynthesize_UsageStoreFailureIsDependency(t *testing.T) {
	t.Parallel()

	fix := newFixture(t, freeUser(), false)
	fix.usage.err = errStoreDown

	_, err := fix.service.Synthesize(
		context.Background(), fix.userID, articleText, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDependency)
	assert.Equal(t, 0, fix.provider.calls)
}
