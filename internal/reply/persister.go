package reply

import (
	"sync"
	"time"

	"ard/internal/models"
	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/services"
	"ard/internal/structures"
)

// Persister is the write-coalescing gate between the runtime record and the
// account store. Mutations call MarkDirty, which arms (or re-arms) a single
// debounce timer; a burst of mutations collapses into one write of the
// latest state. Flush writes synchronously and is the deterministic path
// used by tests, shutdown and the periodic safety flush.
//
// A write overlays only the process-owned fields (strike state and the
// enabled flag) onto the latest on-disk record, so a concurrent editor's
// changes to other fields are not clobbered.
type Persister struct {
	service services.RuleServiceInterface
	store   interfaces.AccountStoreInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface

	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer
	dirty bool

	// opsMu serializes the actual store writes.
	opsMu sync.Mutex
}

func NewPersister(conf *structures.Config, service services.RuleServiceInterface, store interfaces.AccountStoreInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.PersisterInterface {
	return &Persister{
		service:  service,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		debounce: conf.Persistence.Debounce,
	}
}

// MarkDirty schedules a debounced write. Safe to call while holding the
// rule service lock; it never blocks on I/O.
func (p *Persister) MarkDirty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty = true
	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, func() { _ = p.Flush() })
	} else {
		p.timer.Reset(p.debounce)
	}
}

// Flush writes the pending state now, if any. A failed write re-arms the
// dirty flag so the next mutation or periodic flush retries it; state in
// memory stays correct regardless.
func (p *Persister) Flush() error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	dirty := p.dirty
	p.dirty = false
	p.mu.Unlock()

	if !dirty {
		return nil
	}

	if err := p.write(); err != nil {
		p.logger.Errorf(providers.TypeApp, "account record persist failed: %s", err)
		p.mu.Lock()
		p.dirty = true
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *Persister) write() error {
	p.opsMu.Lock()
	defer p.opsMu.Unlock()

	uin := p.service.Uin()
	if uin == "" {
		p.logger.Warnf(providers.TypeApp, "persist skipped: account uin not resolved yet")
		return nil
	}

	start := time.Now()
	snapshot := p.service.Snapshot()

	latest, err := p.store.Load(uin)
	if err != nil {
		return err
	}

	merged := models.MergeRuntimeFields(latest, snapshot)
	if _, err := p.store.Save(uin, merged); err != nil {
		return err
	}

	p.metrics.ObservePersistenceDuration(time.Since(start))
	p.logger.Debugf(providers.TypeApp, "account record persisted for %s", uin)
	return nil
}
