package reply

import (
	"context"
	"errors"
	"sync"
	"time"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/services"
)

const sendTimeout = 10 * time.Second

// Dispatcher is the per-account entry point for inbound event batches. It
// also owns the inbound subscription and reacts to config changes:
// subscribe while the account is enabled, reconcile from history on the
// strike-out mode off-to-on edge.
type Dispatcher struct {
	service    services.RuleServiceInterface
	tracker    *Tracker
	reconciler *Reconciler
	transport  interfaces.TransportInterface
	journal    interfaces.JournalInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface

	mu      sync.Mutex
	offRecv func()
}

func NewDispatcher(service services.RuleServiceInterface, tracker *Tracker, reconciler *Reconciler, transport interfaces.TransportInterface, journal interfaces.JournalInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Dispatcher {
	return &Dispatcher{
		service:    service,
		tracker:    tracker,
		reconciler: reconciler,
		transport:  transport,
		journal:    journal,
		logger:     logger,
		metrics:    metrics,
	}
}

// ApplyConfig installs a new account record, re-evaluates the inbound
// subscription and triggers history reconciliation when strike-out mode
// just turned on.
func (d *Dispatcher) ApplyConfig(cfg *models.AccountConfig) {
	strikeEdge := d.service.Apply(cfg)
	d.logger.SetDebug(cfg.Debug)
	d.logger.Infof(providers.TypeApp, "config applied: enabled=%t strikeOutMode=%t rules=%d", cfg.Enabled, cfg.StrikeOutMode, len(cfg.Rules))

	d.reconcileSubscription()

	if strikeEdge {
		go d.reconciler.SyncFromHistory(context.Background())
	}
}

func (d *Dispatcher) reconcileSubscription() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.service.Enabled() {
		if d.offRecv == nil {
			d.offRecv = d.transport.SubscribeInbound(d.HandleInbound)
			d.logger.Infof(providers.TypeApp, "inbound subscription active")
		}
		return
	}
	if d.offRecv != nil {
		d.offRecv()
		d.offRecv = nil
		d.logger.Infof(providers.TypeApp, "inbound subscription stopped")
	}
}

// Unsubscribe detaches from the inbound stream, leaving rule state intact.
func (d *Dispatcher) Unsubscribe() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.offRecv != nil {
		d.offRecv()
		d.offRecv = nil
	}
}

// HandleInbound processes one inbound batch. Every element is handled as an
// independent event; the host makes no singleton-batch guarantee.
func (d *Dispatcher) HandleInbound(msgs []models.InboundMessage) {
	if !d.service.Enabled() {
		return
	}
	for i := range msgs {
		d.handleMessage(&msgs[i])
	}
}

func (d *Dispatcher) handleMessage(msg *models.InboundMessage) {
	switch msg.ChatType {
	case models.ChatTypePrivate:
		d.metrics.IncInboundMessages("private")
		replyAt := models.ToMs(msg.Time)
		if replyAt == 0 {
			replyAt = time.Now().UnixMilli()
		}
		d.tracker.OnReply(msg.SenderUin, replyAt)

	case models.ChatTypeGroup:
		d.metrics.IncInboundMessages("group")
		d.handleGroupMessage(msg)
	}
}

type firedRule struct {
	targetUin  string
	replyText  string
	groupCode  string
	triggerUin string
}

func (d *Dispatcher) handleGroupMessage(msg *models.InboundMessage) {
	var fired []firedRule

	d.service.WithConfig(func(cfg *models.AccountConfig) {
		for _, r := range MatchRules(msg, cfg.Rules) {
			d.metrics.IncRulesMatched()
			d.logger.Debugf(providers.TypeEvent, "rule matched: group=%s trigger=%s target=%s", r.GroupCode, r.TriggerFriendUin, r.TargetFriendUin)
			if !d.tracker.Gate(cfg, r) {
				continue
			}
			fired = append(fired, firedRule{
				targetUin:  r.TargetFriendUin,
				replyText:  r.ReplyText,
				groupCode:  r.GroupCode,
				triggerUin: r.TriggerFriendUin,
			})
		}
	})

	// Sends happen outside the lock; a failed send never rolls back the
	// gate's state mutation.
	for _, f := range fired {
		d.send(f)
	}
}

func (d *Dispatcher) send(f firedRule) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	outcome := "ok"
	err := d.transport.SendDirectMessage(ctx, f.targetUin, f.replyText)
	switch {
	case errors.Is(err, interfaces.ErrUnresolvedIdentity):
		outcome = "skipped"
		d.logger.Warnf(providers.TypeEvent, "send to %s skipped: %s", f.targetUin, err)
	case err != nil:
		outcome = "error"
		d.logger.Warnf(providers.TypeEvent, "send to %s failed: %s", f.targetUin, err)
	default:
		d.logger.Infof(providers.TypeEvent, "auto-reply sent: group=%s trigger=%s target=%s", f.groupCode, f.triggerUin, f.targetUin)
	}
	d.metrics.IncSends(outcome)
	d.journal.Record(models.JournalEntry{
		At:               time.Now(),
		Kind:             models.JournalRuleFired,
		GroupCode:        f.groupCode,
		TriggerFriendUin: f.triggerUin,
		TargetFriendUin:  f.targetUin,
		Outcome:          outcome,
	})
}
