package reply

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ard/internal/models"
	"ard/internal/structures"
	"ard/internal/testutil"
)

func newTestJournal(t *testing.T) (*Journal, string) {
	dir := t.TempDir()
	conf := &structures.Config{}
	conf.Journal.Dir = dir
	j := NewJournal(conf, &testutil.MockCompressor{}, &testutil.MockLogger{}).(*Journal)
	return j, dir
}

func readJournalEntries(t *testing.T, dir string) []models.JournalEntry {
	files, err := os.ReadDir(dir)
	require.NoError(t, err)

	var entries []models.JournalEntry
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		require.NoError(t, err)
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			var e models.JournalEntry
			require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
			entries = append(entries, e)
		}
	}
	return entries
}

func TestJournal_FlushWritesJSONLines(t *testing.T) {
	j, dir := newTestJournal(t)
	j.Record(models.JournalEntry{At: time.Now(), Kind: models.JournalRuleFired, TargetFriendUin: "bob", Outcome: "ok"})
	j.Record(models.JournalEntry{At: time.Now(), Kind: models.JournalReplyObserved, TargetFriendUin: "bob"})

	require.NoError(t, j.Flush())

	entries := readJournalEntries(t, dir)
	require.Len(t, entries, 2)
	assert.Equal(t, models.JournalRuleFired, entries[0].Kind)
	assert.Equal(t, "ok", entries[0].Outcome)
	assert.Equal(t, models.JournalReplyObserved, entries[1].Kind)
}

func TestJournal_FlushEmpty_NoFile(t *testing.T) {
	j, dir := newTestJournal(t)
	require.NoError(t, j.Flush())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestJournal_EachFlushNewFile(t *testing.T) {
	j, dir := newTestJournal(t)
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	j.now = func() time.Time { base = base.Add(time.Second); return base }

	j.Record(models.JournalEntry{Kind: models.JournalRuleFired})
	require.NoError(t, j.Flush())
	j.Record(models.JournalEntry{Kind: models.JournalRuleStruckOut})
	require.NoError(t, j.Flush())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestJournal_FailedFlushKeepsEntries(t *testing.T) {
	conf := &structures.Config{}
	conf.Journal.Dir = filepath.Join(t.TempDir(), "blocked")
	j := NewJournal(conf, &testutil.MockCompressor{}, &testutil.MockLogger{}).(*Journal)

	// Occupy the journal path with a regular file so MkdirAll fails.
	require.NoError(t, os.WriteFile(conf.Journal.Dir, []byte("x"), 0o644))

	j.Record(models.JournalEntry{Kind: models.JournalRuleFired})
	require.Error(t, j.Flush())

	// Unblock and retry; the entry survived.
	require.NoError(t, os.Remove(conf.Journal.Dir))
	require.NoError(t, j.Flush())
	entries := readJournalEntries(t, conf.Journal.Dir)
	require.Len(t, entries, 1)
	assert.Equal(t, models.JournalRuleFired, entries[0].Kind)
}

func TestJournal_CloseFlushes(t *testing.T) {
	j, dir := newTestJournal(t)
	j.Record(models.JournalEntry{Kind: models.JournalReplyReconciled})
	require.NoError(t, j.Close())

	entries := readJournalEntries(t, dir)
	require.Len(t, entries, 1)
}

func TestJournal_DisabledWithoutDir(t *testing.T) {
	conf := &structures.Config{}
	j := NewJournal(conf, &testutil.MockCompressor{}, &testutil.MockLogger{})

	j.Record(models.JournalEntry{Kind: models.JournalRuleFired})
	assert.NoError(t, j.Flush())
	assert.NoError(t, j.Close())
}

func TestJournal_CompressedOutputRoundtrips(t *testing.T) {
	dir := t.TempDir()
	conf := &structures.Config{}
	conf.Journal.Dir = dir
	comp, err := NewZstdCompressor()
	require.NoError(t, err)
	j := NewJournal(conf, comp, &testutil.MockLogger{}).(*Journal)

	j.Record(models.JournalEntry{Kind: models.JournalRuleFired, TargetFriendUin: "bob"})
	require.NoError(t, j.Flush())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), ".jsonl.zst")

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	plain, err := comp.Decompress(data)
	require.NoError(t, err)

	var e models.JournalEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(plain), &e))
	assert.Equal(t, "bob", e.TargetFriendUin)
}
