package reply

import (
	"context"
	"sync"
	"time"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/services"
	"ard/internal/structures"
)

// Reconciler closes the gap between "strike-out mode turned on" and "first
// live reply observed": for every target still owed a reply it scans recent
// private history and clears awaiting state as if the reply had arrived
// live. Reconciliation only ever clears state; it never advances a streak
// and never disables a rule.
type Reconciler struct {
	service      services.RuleServiceInterface
	transport    interfaces.TransportInterface
	persister    interfaces.PersisterInterface
	journal      interfaces.JournalInterface
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
	historyLimit int
}

func NewReconciler(conf *structures.Config, service services.RuleServiceInterface, transport interfaces.TransportInterface, persister interfaces.PersisterInterface, journal interfaces.JournalInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Reconciler {
	return &Reconciler{
		service:      service,
		transport:    transport,
		persister:    persister,
		journal:      journal,
		logger:       logger,
		metrics:      metrics,
		historyLimit: conf.Transport.HistoryLimit,
	}
}

// SyncFromHistory reconciles every awaiting target. Targets are processed
// concurrently and independently: a failed fetch for one target never
// blocks the others.
func (rc *Reconciler) SyncFromHistory(ctx context.Context) {
	cfg := rc.service.Snapshot()
	if !cfg.StrikeOutMode {
		return
	}

	targets := cfg.AwaitingTargets()
	if len(targets) == 0 {
		return
	}

	rc.logger.Infof(providers.TypeEvent, "reconciling %d awaiting target(s) from history", len(targets))

	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(uin string) {
			defer wg.Done()
			rc.syncTarget(ctx, uin)
		}(target)
	}
	wg.Wait()
}

func (rc *Reconciler) syncTarget(ctx context.Context, uin string) {
	history, err := rc.transport.FetchRecentPrivateHistory(ctx, uin, rc.historyLimit)
	if err != nil {
		rc.logger.Warnf(providers.TypeEvent, "history fetch for %s failed: %s", uin, err)
		return
	}

	var newestIncomingAt int64
	for _, m := range history {
		if m.SenderUin != uin {
			continue
		}
		if at := models.ToMs(m.Time); at > newestIncomingAt {
			newestIncomingAt = at
		}
	}
	if newestIncomingAt == 0 {
		return
	}

	changed := 0
	rc.service.WithConfig(func(cfg *models.AccountConfig) {
		if !cfg.StrikeOutMode {
			return
		}
		for _, r := range cfg.Rules {
			if acceptReply(r, uin, newestIncomingAt) {
				changed++
			}
		}
		if changed > 0 {
			rc.persister.MarkDirty()
		}
	})

	if changed > 0 {
		rc.logger.Infof(providers.TypeEvent, "history reconciliation cleared %d rule(s) for %s", changed, uin)
		rc.metrics.AddReconciledReplies(changed)
		rc.journal.Record(models.JournalEntry{
			At:              time.Now(),
			Kind:            models.JournalReplyReconciled,
			TargetFriendUin: uin,
		})
	}
}
