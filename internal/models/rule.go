package models

import (
	"strings"

	"github.com/spf13/cast"
)

// Rule is one configured forwarding policy: when TriggerFriendUin speaks in
// GroupCode, send ReplyText to TargetFriendUin. The strike fields survive
// restarts so the three-strikes decision does not reset on relogin.
type Rule struct {
	Enabled          bool   `json:"enabled"`
	GroupCode        string `json:"groupCode"`
	TriggerFriendUin string `json:"triggerFriendUin"`
	TargetFriendUin  string `json:"targetFriendUin"`
	ReplyText        string `json:"replyText"`

	AwaitingReply bool  `json:"awaitingReply"`
	NoReplyStreak uint  `json:"noReplyStreak"`
	LastSentAt    int64 `json:"lastSentAt"`
	LastReplyAt   int64 `json:"lastReplyAt"`
}

// AccountConfig is the root persisted record, one per account uin.
type AccountConfig struct {
	Enabled       bool    `json:"enabled"`
	StrikeOutMode bool    `json:"strikeOutMode"`
	Debug         bool    `json:"debug"`
	Rules         []*Rule `json:"rules"`
}

func DefaultAccountConfig() *AccountConfig {
	return &AccountConfig{
		Enabled:       true,
		StrikeOutMode: false,
		Debug:         false,
		Rules:         []*Rule{},
	}
}

func (c *AccountConfig) Clone() *AccountConfig {
	cp := &AccountConfig{
		Enabled:       c.Enabled,
		StrikeOutMode: c.StrikeOutMode,
		Debug:         c.Debug,
		Rules:         make([]*Rule, len(c.Rules)),
	}
	for i, r := range c.Rules {
		rc := *r
		cp.Rules[i] = &rc
	}
	return cp
}

// Normalize trims identity fields and drops nil rule entries in place.
func (c *AccountConfig) Normalize() {
	rules := make([]*Rule, 0, len(c.Rules))
	for _, r := range c.Rules {
		if r == nil {
			continue
		}
		r.GroupCode = strings.TrimSpace(r.GroupCode)
		r.TriggerFriendUin = strings.TrimSpace(r.TriggerFriendUin)
		r.TargetFriendUin = strings.TrimSpace(r.TargetFriendUin)
		rules = append(rules, r)
	}
	c.Rules = rules
}

// AwaitingTargets returns the distinct TargetFriendUin values across rules
// still awaiting a reply, in rule list order. Derived on demand, never cached.
func (c *AccountConfig) AwaitingTargets() []string {
	seen := make(map[string]struct{})
	var targets []string
	for _, r := range c.Rules {
		if !r.AwaitingReply || r.TargetFriendUin == "" {
			continue
		}
		if _, ok := seen[r.TargetFriendUin]; ok {
			continue
		}
		seen[r.TargetFriendUin] = struct{}{}
		targets = append(targets, r.TargetFriendUin)
	}
	return targets
}

// RawRule mirrors the on-disk rule shape with loose field types, so records
// written by hand or by older versions still decode: booleans may be absent,
// numbers may arrive as strings or floats.
type RawRule struct {
	Enabled          *bool `json:"enabled"`
	GroupCode        any   `json:"groupCode"`
	TriggerFriendUin any   `json:"triggerFriendUin"`
	TargetFriendUin  any   `json:"targetFriendUin"`
	ReplyText        any   `json:"replyText"`
	AwaitingReply    *bool `json:"awaitingReply"`
	NoReplyStreak    any   `json:"noReplyStreak"`
	LastSentAt       any   `json:"lastSentAt"`
	LastReplyAt      any   `json:"lastReplyAt"`
}

type RawAccountConfig struct {
	Enabled       *bool     `json:"enabled"`
	StrikeOutMode *bool     `json:"strikeOutMode"`
	Debug         *bool     `json:"debug"`
	Rules         []RawRule `json:"rules"`
}

// Normalized coerces the raw record into a well-formed AccountConfig:
// strings trimmed, numerics clamped to non-negative (0 on parse failure),
// enabled flags defaulting to true unless explicitly false.
func (rc *RawAccountConfig) Normalized() *AccountConfig {
	cfg := &AccountConfig{
		Enabled:       boolOrTrue(rc.Enabled),
		StrikeOutMode: rc.StrikeOutMode != nil && *rc.StrikeOutMode,
		Debug:         rc.Debug != nil && *rc.Debug,
		Rules:         make([]*Rule, 0, len(rc.Rules)),
	}
	for _, rr := range rc.Rules {
		streak := nonNegative(rr.NoReplyStreak)
		cfg.Rules = append(cfg.Rules, &Rule{
			Enabled:          boolOrTrue(rr.Enabled),
			GroupCode:        trimmedString(rr.GroupCode),
			TriggerFriendUin: trimmedString(rr.TriggerFriendUin),
			TargetFriendUin:  trimmedString(rr.TargetFriendUin),
			ReplyText:        cast.ToString(rr.ReplyText),
			AwaitingReply:    rr.AwaitingReply != nil && *rr.AwaitingReply,
			NoReplyStreak:    uint(streak),
			LastSentAt:       nonNegative(rr.LastSentAt),
			LastReplyAt:      nonNegative(rr.LastReplyAt),
		})
	}
	return cfg
}

// MergeEditorFields overlays the editor-owned fields of incoming onto the
// latest on-disk record: global switches, rule identity fields, reply text,
// the manual enabled flag, and the rule list length itself. Runtime strike
// state is taken from latest, paired by list position; rules added by the
// editor start with zero strike state.
func MergeEditorFields(latest, incoming *AccountConfig) *AccountConfig {
	merged := &AccountConfig{
		Enabled:       incoming.Enabled,
		StrikeOutMode: incoming.StrikeOutMode,
		Debug:         incoming.Debug,
		Rules:         make([]*Rule, 0, len(incoming.Rules)),
	}
	for i, in := range incoming.Rules {
		r := &Rule{}
		if i < len(latest.Rules) {
			*r = *latest.Rules[i]
		}
		r.Enabled = in.Enabled
		r.GroupCode = in.GroupCode
		r.TriggerFriendUin = in.TriggerFriendUin
		r.TargetFriendUin = in.TargetFriendUin
		r.ReplyText = in.ReplyText
		merged.Rules = append(merged.Rules, r)
	}
	return merged
}

// MergeRuntimeFields overlays the process-owned fields of the runtime
// snapshot onto the latest on-disk record: strike state and the enabled flag
// (auto-disable mutates it). Everything else, including rules the editor
// added or removed while this process was running, stays as found on disk.
func MergeRuntimeFields(latest, snapshot *AccountConfig) *AccountConfig {
	merged := latest.Clone()
	for i, r := range merged.Rules {
		if i >= len(snapshot.Rules) {
			break
		}
		s := snapshot.Rules[i]
		r.Enabled = s.Enabled
		r.AwaitingReply = s.AwaitingReply
		r.NoReplyStreak = s.NoReplyStreak
		r.LastSentAt = s.LastSentAt
		r.LastReplyAt = s.LastReplyAt
	}
	return merged
}

func boolOrTrue(v *bool) bool {
	return v == nil || *v
}

func trimmedString(v any) string {
	return strings.TrimSpace(cast.ToString(v))
}

func nonNegative(v any) int64 {
	n := cast.ToInt64(v)
	if n < 0 {
		return 0
	}
	return n
}
