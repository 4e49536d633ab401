package reply

import (
	"time"

	"github.com/roylee0704/gron"

	"ard/internal/providers"
	"ard/internal/reply/interfaces"
	"ard/internal/structures"
)

// Scheduler runs the periodic safety flushes: the persister flush doubles
// as the retry path for a failed debounced write, and the journal flush
// bounds how much audit data can sit in memory.
type Scheduler struct {
	config    *structures.Config
	logger    providers.Logger
	persister interfaces.PersisterInterface
	journal   interfaces.JournalInterface
	cron      *gron.Cron
}

func NewScheduler(config *structures.Config, logger providers.Logger, persister interfaces.PersisterInterface, journal interfaces.JournalInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:    config,
		logger:    logger,
		persister: persister,
		journal:   journal,
	}
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.FlushInterval), func() {
		if err := s.persister.Flush(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting account record: %s", err)
		}
	})

	journalInterval := s.config.Journal.FlushInterval
	if journalInterval <= 0 {
		journalInterval = time.Minute
	}
	s.cron.AddFunc(gron.Every(journalInterval), func() {
		if err := s.journal.Flush(); err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while flushing journal: %s", err)
		}
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
