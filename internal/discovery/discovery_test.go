package discovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestPrefersHigherScore(t *testing.T) {
	now := time.Unix(1700000000, 0)
	candidates := []Candidate{
		{Path: "low.jsonl", Score: 50, ModTime: now.Add(time.Hour)},
		{Path: "high.jsonl", Score: 150, ModTime: now},
	}

	best, confidence, ok := Best(candidates)
	require.True(t, ok)
	assert.Equal(t, "high.jsonl", best.Path)
	assert.Equal(t, ConfidenceHigh, confidence)
}

func TestBestBreaksTiesByTailTimestampThenMtime(t *testing.T) {
	now := time.Unix(1700000000, 0)
	candidates := []Candidate{
		{Path: "older.jsonl", Score: 100, ModTime: now},
		{Path: "newer.jsonl", Score: 100, ModTime: now.Add(time.Hour)},
	}

	best, _, ok := Best(candidates)
	require.True(t, ok)
	assert.Equal(t, "newer.jsonl", best.Path)
}

func TestBestPrefersTailTimestampOverMtimeOnTie(t *testing.T) {
	now := time.Unix(1700000000, 0)
	candidates := []Candidate{
		{Path: "stale-tail.jsonl", Score: 100, ModTime: now.Add(time.Hour), TailTS: now},
		{Path: "fresh-tail.jsonl", Score: 100, ModTime: now, TailTS: now.Add(time.Hour)},
	}

	best, _, ok := Best(candidates)
	require.True(t, ok)
	assert.Equal(t, "fresh-tail.jsonl", best.Path)
}

func TestBestEmptyCandidates(t *testing.T) {
	_, confidence, ok := Best(nil)
	assert.False(t, ok)
	assert.Equal(t, ConfidenceLow, confidence)
}

func TestBestMediumConfidenceWhenMarginSmall(t *testing.T) {
	now := time.Unix(1700000000, 0)
	candidates := []Candidate{
		{Path: "runner-up.jsonl", Score: 100, ModTime: now},
		{Path: "winner.jsonl", Score: 110, ModTime: now},
	}

	best, confidence, ok := Best(candidates)
	require.True(t, ok)
	assert.Equal(t, "winner.jsonl", best.Path)
	assert.Equal(t, ConfidenceMedium, confidence)
}

func TestBestLowConfidenceForFallback(t *testing.T) {
	candidates := []Candidate{
		{Path: "fallback.jsonl", Score: 0, Fallback: true},
	}

	best, confidence, ok := Best(candidates)
	require.True(t, ok)
	assert.Equal(t, "fallback.jsonl", best.Path)
	assert.Equal(t, ConfidenceLow, confidence)
}

func TestConfidenceString(t *testing.T) {
	assert.Equal(t, "high", ConfidenceHigh.String())
	assert.Equal(t, "medium", ConfidenceMedium.String())
	assert.Equal(t, "low", ConfidenceLow.String())
}
