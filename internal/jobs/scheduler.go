package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nilesh-agrahari/SecureFileShare/internal/repository"
	"github.com/nilesh-agrahari/SecureFileShare/internal/storage"
)

const sweepLockKey = "jobs:blob_sweep:lock"

// Scheduler runs the nightly orphan-blob sweep: objects that lost their
// metadata row (a crash between blob put and metadata insert, or a
// metadata delete raced with retry) are removed from the bucket. A Redis
// lock keeps multiple instances from sweeping at once.
type Scheduler struct {
	cron  *cron.Cron
	docs  *repository.DocumentRepository
	store *storage.ObjectStore
	cache *redis.Client
	log   zerolog.Logger
}

func NewScheduler(docs *repository.DocumentRepository, store *storage.ObjectStore, cache *redis.Client, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithSeconds()),
		docs:  docs,
		store: store,
		cache: cache,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 30 3 * * *", s.sweepOrphanBlobs); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts scheduling and waits up to five seconds for a running sweep.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweepOrphanBlobs() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if s.cache != nil {
		locked, err := s.cache.SetNX(ctx, sweepLockKey, "1", time.Hour).Result()
		if err != nil {
			s.log.Error().Err(err).Msg("sweep lock failed")
			return
		}
		if !locked {
			s.log.Debug().Msg("sweep already running elsewhere")
			return
		}
	}

	keys, err := s.store.ListKeys(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("sweep: list objects failed")
		return
	}

	removed := 0
	for _, key := range keys {
		exists, err := s.docs.ExistsByObjectKey(ctx, key)
		if err != nil {
			s.log.Error().Err(err).Str("object_key", key).Msg("sweep: metadata lookup failed")
			continue
		}
		if exists {
			continue
		}
		if err := s.store.Remove(ctx, key); err != nil {
			s.log.Error().Err(err).Str("object_key", key).Msg("sweep: remove orphan failed")
			continue
		}
		removed++
	}

	s.log.Info().Int("scanned", len(keys)).Int("removed", removed).Msg("orphan blob sweep finished")
}
