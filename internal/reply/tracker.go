package reply

import (
	"time"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/services"
)

// MaxNoReply is the strike limit: after this many consecutive unanswered
// fires, the next fire attempt disables the rule instead of sending.
const MaxNoReply = 3

// Tracker is the strike-out state machine. Gate decides whether a matched
// rule may fire right now; OnReply clears awaiting state when the target
// answers. All transitions happen under the rule service lock.
type Tracker struct {
	service   services.RuleServiceInterface
	persister interfaces.PersisterInterface
	journal   interfaces.JournalInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	now       func() int64
}

func NewTracker(service services.RuleServiceInterface, persister interfaces.PersisterInterface, journal interfaces.JournalInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *Tracker {
	return &Tracker{
		service:   service,
		persister: persister,
		journal:   journal,
		logger:    logger,
		metrics:   metrics,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Gate is called with the service lock already held, for a rule the matcher
// just selected. It permits or denies the fire and advances strike state:
//
//   - strike-out mode off: permit, touch nothing
//   - rule disabled: deny
//   - awaiting a reply with the streak at the limit: disable the rule,
//     deny (the strike-out transition)
//   - otherwise: streak becomes 1 after an observed reply or increments
//     while still awaiting, the rule re-arms awaitingReply, and the fire
//     is permitted
func (t *Tracker) Gate(cfg *models.AccountConfig, rule *models.Rule) bool {
	if !cfg.StrikeOutMode {
		return true
	}
	if !rule.Enabled {
		return false
	}

	if rule.AwaitingReply && rule.NoReplyStreak >= MaxNoReply {
		rule.Enabled = false
		t.logger.Infof(providers.TypeEvent, "rule struck out after %d unanswered sends: group=%s target=%s", rule.NoReplyStreak, rule.GroupCode, rule.TargetFriendUin)
		t.metrics.IncStrikeOuts()
		t.journal.Record(models.JournalEntry{
			At:               time.Now(),
			Kind:             models.JournalRuleStruckOut,
			GroupCode:        rule.GroupCode,
			TriggerFriendUin: rule.TriggerFriendUin,
			TargetFriendUin:  rule.TargetFriendUin,
			NoReplyStreak:    rule.NoReplyStreak,
		})
		t.persister.MarkDirty()
		return false
	}

	if rule.AwaitingReply {
		rule.NoReplyStreak++
	} else {
		rule.NoReplyStreak = 1
	}
	rule.AwaitingReply = true
	rule.LastSentAt = t.now()
	t.persister.MarkDirty()
	return true
}

// OnReply handles one inbound private message. Every awaiting rule pointed
// at the sender whose last send is not newer than the reply is cleared.
func (t *Tracker) OnReply(senderUin string, replyAt int64) {
	if senderUin == "" {
		return
	}

	changed := 0
	t.service.WithConfig(func(cfg *models.AccountConfig) {
		if !cfg.StrikeOutMode {
			return
		}
		for _, r := range cfg.Rules {
			if acceptReply(r, senderUin, replyAt) {
				changed++
			}
		}
		if changed > 0 {
			t.persister.MarkDirty()
		}
	})

	if changed > 0 {
		t.logger.Infof(providers.TypeEvent, "reply observed from %s, cleared %d awaiting rule(s)", senderUin, changed)
		t.journal.Record(models.JournalEntry{
			At:              time.Now(),
			Kind:            models.JournalReplyObserved,
			TargetFriendUin: senderUin,
		})
	}
}

// acceptReply applies the reply-acceptance decision shared by the live path
// and history reconciliation. The >= comparison is deliberate: a reply
// carrying exactly the send's timestamp still counts, favoring a false
// negative on strikes over a false positive.
func acceptReply(r *models.Rule, senderUin string, replyAt int64) bool {
	if r.TargetFriendUin != senderUin || !r.AwaitingReply {
		return false
	}
	if r.LastSentAt != 0 && replyAt < r.LastSentAt {
		return false
	}
	r.AwaitingReply = false
	r.NoReplyStreak = 0
	r.LastReplyAt = replyAt
	return true
}
