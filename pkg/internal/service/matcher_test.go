package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/filterbot/pkg/configs"
	"github.com/yeisme/filterbot/pkg/internal/model"
	"github.com/yeisme/filterbot/pkg/internal/storage/record"
)

var noBreaker = configs.CircuitBreakerConfig{}

func TestMatchBlankQueryDoesNotTouchStore(t *testing.T) {
	s := &fakeStore{records: files("Avatar.mkv")}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeSubstring), noBreaker)

	for _, q := range []string{"", "   ", "\t\n"} {
		got, outcome := m.MatchWithOutcome(context.Background(), q, 10)
		assert.Empty(t, got)
		assert.Equal(t, OutcomeEmpty, outcome)
	}

	text, substr := s.calls()
	assert.Zero(t, text)
	assert.Zero(t, substr)
}

func TestMatchUsesTextSearchWhenIndexed(t *testing.T) {
	ranked := []model.FileRecord{
		{FileID: "b", FileName: "Avengers Endgame 1080p.mkv", Score: 2.5},
		{FileID: "a", FileName: "Avengers.mkv", Score: 1.1},
	}
	s := &fakeStore{records: ranked, hasIndex: true}

	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeAuto), noBreaker)
	assert.Equal(t, ModeText, m.Mode())

	got := m.Match(context.Background(), "avengers endgame", 10)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].FileID)
	assert.Equal(t, 10, s.lastLimit)

	text, substr := s.calls()
	assert.Equal(t, 1, text)
	assert.Zero(t, substr)
}

func TestMatchSubstringWithoutIndex(t *testing.T) {
	s := &fakeStore{records: files("Avatar.mkv", "The Matrix.mp4", "avatar 2.mkv")}

	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeAuto), noBreaker)
	assert.Equal(t, ModeSubstring, m.Mode())

	got, outcome := m.MatchWithOutcome(context.Background(), "  AVATAR ", 10)
	assert.Equal(t, OutcomeHit, outcome)
	require.Len(t, got, 2)
	assert.Equal(t, "Avatar.mkv", got[0].FileName)
	assert.Equal(t, "avatar 2.mkv", got[1].FileName)

	got, outcome = m.MatchWithOutcome(context.Background(), "zzz", 10)
	assert.Empty(t, got)
	assert.Equal(t, OutcomeMiss, outcome)
}

func TestMatchIndexCheckFailureFallsBackToSubstring(t *testing.T) {
	s := &fakeStore{indexErr: errors.New("no listIndexes permission")}

	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeAuto), noBreaker)
	assert.Equal(t, ModeSubstring, m.Mode())
}

func TestMatchStoreFailureIsEmpty(t *testing.T) {
	s := &fakeStore{records: files("Avatar.mkv"), searchErr: record.Unavailable("find", errors.New("connection refused"))}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeSubstring), noBreaker)

	got, outcome := m.MatchWithOutcome(context.Background(), "avatar", 10)
	assert.Empty(t, got)
	assert.Equal(t, OutcomeError, outcome)
}

func TestMatchRespectsLimit(t *testing.T) {
	s := &fakeStore{records: files("a1", "a2", "a3", "a4", "a5"), hasIndex: true}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeText), noBreaker)

	got := m.Match(context.Background(), "a", 3)
	assert.Len(t, got, 3)
	assert.Equal(t, 3, s.lastLimit)

	assert.Empty(t, m.Match(context.Background(), "a", 0))
}

func TestTextSearcherFallsBackWhenIndexDropped(t *testing.T) {
	s := &fakeStore{records: files("Avatar.mkv")}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeText), noBreaker)

	got := m.Match(context.Background(), "avatar", 10)
	require.Len(t, got, 1)

	text, substr := s.calls()
	assert.Equal(t, 1, text)
	assert.Equal(t, 1, substr)
}

func TestMatchBreakerOpensAfterFailures(t *testing.T) {
	s := &fakeStore{searchErr: errors.New("timeout")}
	cb := configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		IntervalSeconds:   60,
		TimeoutSeconds:    60,
		MaxRequestsInHalf: 1,
	}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeSubstring), cb)

	for range 5 {
		_, outcome := m.MatchWithOutcome(context.Background(), "x", 10)
		assert.Equal(t, OutcomeError, outcome)
	}

	_, substr := s.calls()
	assert.Equal(t, 2, substr)
}

func TestRefreshSwapsSearcher(t *testing.T) {
	s := &fakeStore{records: files("Avatar.mkv")}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeAuto), noBreaker)
	require.Equal(t, ModeSubstring, m.Mode())

	assert.False(t, m.Refresh(context.Background()))

	s.mu.Lock()
	s.hasIndex = true
	s.mu.Unlock()

	assert.True(t, m.Refresh(context.Background()))
	assert.Equal(t, ModeText, m.Mode())
}

func TestRefreshKeepsSearcherOnIndexCheckError(t *testing.T) {
	s := &fakeStore{records: files("Avatar.mkv"), hasIndex: true}
	m := NewMatcher(context.Background(), s, searchConfig(configs.SearchModeAuto), noBreaker)
	require.Equal(t, ModeText, m.Mode())

	s.mu.Lock()
	s.indexErr = errors.New("connection reset")
	s.mu.Unlock()

	assert.False(t, m.Refresh(context.Background()))
	assert.Equal(t, ModeText, m.Mode())

	s.mu.Lock()
	s.indexErr = nil
	s.hasIndex = false
	s.mu.Unlock()

	assert.True(t, m.Refresh(context.Background()))
	assert.Equal(t, ModeSubstring, m.Mode())
}

func TestMatchAgainstSQLiteStore(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	for _, n := range []string{"Avengers Endgame 1080p.mkv", "Avengers Infinity War.mkv", "Up.mp4"} {
		_, err := store.UpsertFile(ctx, model.FileRecord{FileID: "id-" + n, FileName: n, FileType: model.FileTypeVideo})
		require.NoError(t, err)
	}

	m := NewMatcher(ctx, store, searchConfig(configs.SearchModeAuto), noBreaker)
	assert.Equal(t, ModeSubstring, m.Mode())

	got := m.Match(ctx, "avengers", 10)
	assert.Len(t, got, 2)

	got = m.Match(ctx, "avengers", 1)
	assert.Len(t, got, 1)
}
