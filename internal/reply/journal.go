package reply

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/structures"
)

// Journal buffers audit entries in memory and flushes them as
// zstd-compressed JSON-lines files, one file per flush. Disabled entirely
// when no journal directory is configured.
type Journal struct {
	mu         sync.Mutex
	dir        string
	pending    []models.JournalEntry
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	now        func() time.Time
}

func NewJournal(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger) interfaces.JournalInterface {
	if conf.Journal.Dir == "" {
		logger.Infof(providers.TypeApp, "Journal disabled")
		return &noopJournal{}
	}
	return &Journal{
		dir:        conf.Journal.Dir,
		compressor: compressor,
		logger:     logger,
		now:        time.Now,
	}
}

func (j *Journal) Record(entry models.JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pending = append(j.pending, entry)
}

// Flush writes all pending entries to a new timestamped file. On failure
// the entries stay pending for the next flush.
func (j *Journal) Flush() error {
	j.mu.Lock()
	pending := j.pending
	j.pending = nil
	j.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	restore := func() {
		j.mu.Lock()
		j.pending = append(pending, j.pending...)
		j.mu.Unlock()
	}

	var buf []byte
	for _, e := range pending {
		line, err := json.Marshal(e)
		if err != nil {
			restore()
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	compressed, err := j.compressor.Compress(buf)
	if err != nil {
		restore()
		return err
	}

	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		restore()
		return err
	}
	name := filepath.Join(j.dir, "journal-"+j.now().UTC().Format("20060102T150405.000000000")+".jsonl.zst")
	if err := os.WriteFile(name, compressed, 0o644); err != nil {
		restore()
		return err
	}

	j.logger.Debugf(providers.TypeApp, "journal flushed: %d entries to %s", len(pending), name)
	return nil
}

func (j *Journal) Close() error {
	return j.Flush()
}

type noopJournal struct{}

func (n *noopJournal) Record(_ models.JournalEntry) {}
func (n *noopJournal) Flush() error                 { return nil }
func (n *noopJournal) Close() error                 { return nil }
