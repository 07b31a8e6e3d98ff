package evsutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmountCount(t *testing.T) {
	a, err := ParseAmount("50")
	require.NoError(t, err)
	assert.Equal(t, AmountCount, a.Kind)
	assert.Equal(t, 50.0, a.Value)
}

func TestParseAmountPercent(t *testing.T) {
	a, err := ParseAmount("40%")
	require.NoError(t, err)
	assert.Equal(t, AmountPercent, a.Kind)
	assert.Equal(t, 40.0, a.Value)
}

func TestParseAmountTokensWithKSuffix(t *testing.T) {
	a, err := ParseAmount("140k")
	require.NoError(t, err)
	assert.Equal(t, AmountTokens, a.Kind)
	assert.Equal(t, 140000.0, a.Value)
}

func TestParseAmountTokensWithMSuffix(t *testing.T) {
	a, err := ParseAmount("1.5m")
	require.NoError(t, err)
	assert.Equal(t, AmountTokens, a.Kind)
	assert.Equal(t, 1500000.0, a.Value)
}

func TestParseAmountPercentOfTokens(t *testing.T) {
	a, err := ParseAmount("40%t")
	require.NoError(t, err)
	assert.Equal(t, AmountPercentTokens, a.Kind)
	assert.Equal(t, 40.0, a.Value)
}

func TestParseAmountRejectsEmpty(t *testing.T) {
	_, err := ParseAmount("")
	assert.Error(t, err)
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("not-a-number")
	assert.Error(t, err)
}

func TestParseTokenThresholdTreatsBareNumberAsTokens(t *testing.T) {
	a, err := ParseTokenThreshold("50000")
	require.NoError(t, err)
	assert.Equal(t, AmountTokens, a.Kind)
	assert.Equal(t, 50000.0, a.Value)
}

func TestParseTokenThresholdKeepsPercent(t *testing.T) {
	a, err := ParseTokenThreshold("40%")
	require.NoError(t, err)
	assert.Equal(t, AmountPercent, a.Kind)
}

func TestApplyKeepLastSetsFlagOnCountAmount(t *testing.T) {
	a, err := ParseAmount("50")
	require.NoError(t, err)

	a, err = a.ApplyKeepLast()
	require.NoError(t, err)
	assert.True(t, a.KeepLast)
	assert.Equal(t, AmountCount, a.Kind)
}

func TestApplyKeepLastRejectsTokens(t *testing.T) {
	a, err := ParseAmount("140k")
	require.NoError(t, err)

	_, err = a.ApplyKeepLast()
	require.ErrorIs(t, err, ErrInvalidAmountMode)
}

func TestApplyKeepLastRejectsPercentTokens(t *testing.T) {
	a, err := ParseAmount("40%t")
	require.NoError(t, err)

	_, err = a.ApplyKeepLast()
	require.ErrorIs(t, err, ErrInvalidAmountMode)
}

func TestChangeSetSummary(t *testing.T) {
	var cs ChangeSet
	cs.Delete(3, "orphan tool result")
	cs.Update(5, []byte(`{"a":1}`), "relinked")
	cs.Insert(0, []byte(`{"b":2}`), "compaction summary")

	summary := cs.Summary()
	require.Len(t, summary, 3)
	assert.Equal(t, "delete line 3: orphan tool result", summary[0])
	assert.Equal(t, "update line 5: relinked", summary[1])
	assert.Equal(t, "insert after line 0: compaction summary", summary[2])
}

func TestChangeSetDeletedLines(t *testing.T) {
	var cs ChangeSet
	cs.Delete(1, "a")
	cs.Delete(2, "b")
	cs.Update(3, nil, "c")

	deleted := cs.DeletedLines()
	assert.True(t, deleted[1])
	assert.True(t, deleted[2])
	assert.False(t, deleted[3])
}
