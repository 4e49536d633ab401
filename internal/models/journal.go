package models

import "time"

const (
	JournalRuleFired       = "rule_fired"
	JournalRuleStruckOut   = "rule_struck_out"
	JournalReplyObserved   = "reply_observed"
	JournalReplyReconciled = "reply_reconciled"
)

// JournalEntry is one audit record of an externally visible action.
type JournalEntry struct {
	At               time.Time `json:"at"`
	Kind             string    `json:"kind"`
	GroupCode        string    `json:"groupCode,omitempty"`
	TriggerFriendUin string    `json:"triggerFriendUin,omitempty"`
	TargetFriendUin  string    `json:"targetFriendUin,omitempty"`
	NoReplyStreak    uint      `json:"noReplyStreak,omitempty"`
	Outcome          string    `json:"outcome,omitempty"`
}
