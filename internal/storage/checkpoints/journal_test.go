package checkpoints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardEmptyJournal(t *testing.T) {
	journal, err := NewJournal(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	assert.NoError(t, journal.Guard(501))
}

func TestGuardBlocksPendingIntent(t *testing.T) {
	journal, err := NewJournal(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	_, err = journal.Begin(501, LegConversion)
	require.NoError(t, err)

	err = journal.Guard(501)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedIntent)

	// other orders are unaffected
	assert.NoError(t, journal.Guard(502))
}

func TestResolvedIntentsDoNotBlock(t *testing.T) {
	journal, err := NewJournal(t.TempDir())
	require.NoError(t, err)
	defer journal.Close()

	done, err := journal.Begin(501, LegConversion)
	require.NoError(t, err)
	require.NoError(t, journal.Done(done, "HASH1"))

	failed, err := journal.Begin(501, LegPayout)
	require.NoError(t, err)
	require.NoError(t, journal.Failed(failed, assert.AnError))

	assert.NoError(t, journal.Guard(501))
}

func TestPendingIntentSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	journal, err := NewJournal(dir)
	require.NoError(t, err)
	_, err = journal.Begin(501, LegPayout)
	require.NoError(t, err)
	require.NoError(t, journal.Close())

	reopened, err := NewJournal(dir)
	require.NoError(t, err)
	defer reopened.Close()

	err = reopened.Guard(501)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedIntent)
}

func TestResolutionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	journal, err := NewJournal(dir)
	require.NoError(t, err)
	intent, err := journal.Begin(501, LegConversion)
	require.NoError(t, err)
	require.NoError(t, journal.Done(intent, "HASH1"))
	require.NoError(t, journal.Close())

	reopened, err := NewJournal(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.NoError(t, reopened.Guard(501))
}
