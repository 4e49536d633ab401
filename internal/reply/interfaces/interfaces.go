package interfaces

import (
	"context"
	"errors"

	"ard/internal/models"
)

// ErrUnresolvedIdentity marks a send or fetch that was skipped because the
// friend uin could not be mapped to a transport-level id.
var ErrUnresolvedIdentity = errors.New("identity could not be resolved")

// TransportInterface is the boundary to the chat host: inbound event
// delivery, outbound sends, history fetches and identity resolution.
type TransportInterface interface {
	Connect(ctx context.Context) error
	Close() error
	CurrentIdentity(ctx context.Context) (string, error)
	ResolveUid(ctx context.Context, uin string) (string, bool)
	SendDirectMessage(ctx context.Context, uin, text string) error
	FetchRecentPrivateHistory(ctx context.Context, uin string, limit int) ([]models.HistoryMessage, error)
	SubscribeInbound(handler func(msgs []models.InboundMessage)) (unsubscribe func())
}

// AccountStoreInterface owns the durable per-uin record.
type AccountStoreInterface interface {
	Load(uin string) (*models.AccountConfig, error)
	Save(uin string, cfg *models.AccountConfig) (*models.AccountConfig, error)
}

// PersisterInterface coalesces state mutations into debounced writes.
// MarkDirty never blocks the mutating caller; Flush writes synchronously.
type PersisterInterface interface {
	MarkDirty()
	Flush() error
}

type SchedulerInterface interface {
	Init()
	Stop()
}

type CompressorInterface interface {
	Compress(val []byte) ([]byte, error)
	Decompress(val []byte) ([]byte, error)
}

// JournalInterface records externally visible actions for offline audit.
type JournalInterface interface {
	Record(entry models.JournalEntry)
	Flush() error
	Close() error
}
