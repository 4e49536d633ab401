package services

import (
	"sync"

	"ard/internal/models"
)

// RuleServiceInterface guards the runtime account record. Every read or
// mutation of rule state (gating, reply handling, reconciliation, config
// edits) goes through the single lock held by this service.
type RuleServiceInterface interface {
	Uin() string
	SetUin(uin string)
	Enabled() bool
	Snapshot() *models.AccountConfig
	WithConfig(fn func(cfg *models.AccountConfig))
	Apply(cfg *models.AccountConfig) (strikeEdge bool)
}

type RuleService struct {
	mu  sync.Mutex
	uin string
	cfg *models.AccountConfig
}

func NewRuleService() RuleServiceInterface {
	return &RuleService{cfg: models.DefaultAccountConfig()}
}

func (rs *RuleService) Uin() string {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.uin
}

func (rs *RuleService) SetUin(uin string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.uin = uin
}

func (rs *RuleService) Enabled() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.cfg.Enabled
}

// Snapshot returns a deep copy safe to read outside the lock.
func (rs *RuleService) Snapshot() *models.AccountConfig {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.cfg.Clone()
}

// WithConfig runs fn with the live record under the lock. The callback must
// not call back into the service.
func (rs *RuleService) WithConfig(fn func(cfg *models.AccountConfig)) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	fn(rs.cfg)
}

// Apply replaces the runtime record and reports whether strikeOutMode
// transitioned from off to on, which is the reconciliation trigger.
func (rs *RuleService) Apply(cfg *models.AccountConfig) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	prevStrike := rs.cfg.StrikeOutMode
	rs.cfg = cfg.Clone()
	return !prevStrike && cfg.StrikeOutMode
}
