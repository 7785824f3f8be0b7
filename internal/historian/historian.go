// Package historian drains the action queue written by cache.Publisher and
// archives each room's moves as JSON lines, one file per room.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/jason-s-yu/unoparty/internal/cache"
	"github.com/jason-s-yu/unoparty/internal/game"
	"github.com/jason-s-yu/unoparty/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Popper is the part of a Redis client the historian reads with.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

type Config struct {
	Queue      string
	Dir        string
	BatchSize  int
	FlushDelay time.Duration
	PopTimeout time.Duration
	RetryDelay time.Duration // pause after a failed pop
	Clock      quartz.Clock
	Logger     *logrus.Entry
}

// Service batches popped records and appends them to <Dir>/<ROOM>.jsonl.
type Service struct {
	rdb Popper
	cfg Config
	log *logrus.Entry

	batchMu sync.Mutex
	batch   []models.ActionRecord
}

func New(rdb Popper, cfg Config) *Service {
	if cfg.Queue == "" {
		cfg.Queue = cache.DefaultQueueName
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 500 * time.Millisecond
	}
	if cfg.PopTimeout <= 0 {
		cfg.PopTimeout = 3 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		rdb:   rdb,
		cfg:   cfg,
		log:   cfg.Logger.WithField("queue", cfg.Queue),
		batch: make([]models.ActionRecord, 0, cfg.BatchSize),
	}
}

// Run pops records until ctx ends, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	ticker := s.cfg.Clock.NewTicker(s.cfg.FlushDelay, "historian", "flush")
	defer ticker.Stop()

	s.log.Info("historian started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("historian shutting down")
			return s.flush()
		case <-ticker.C:
			if err := s.flush(); err != nil {
				s.log.WithError(err).Error("flush failed")
			}
		default:
			if err := s.popOne(ctx); err != nil {
				s.log.WithError(err).Warn("BLPop failed")
				s.wait(ctx, s.cfg.RetryDelay)
			}
		}
	}
}

// wait sleeps for d on the service clock unless ctx ends first.
func (s *Service) wait(ctx context.Context, d time.Duration) {
	t := s.cfg.Clock.NewTimer(d, "historian", "retry")
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// popOne takes at most one record off the queue. Only Redis failures are
// returned; an empty queue or a bad record is not an error.
func (s *Service) popOne(ctx context.Context) error {
	res, err := s.rdb.BLPop(ctx, s.cfg.PopTimeout, s.cfg.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil
		}
		return err
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return nil
	}
	var rec models.ActionRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		s.log.WithError(err).Warn("invalid action record")
		return nil
	}
	code, ok := game.NormalizeRoomCode(rec.RoomID)
	if !ok {
		s.log.WithField("room", rec.RoomID).Warn("action record without a valid room code")
		return nil
	}
	rec.RoomID = code
	s.appendToBatch(rec)
	return nil
}

func (s *Service) appendToBatch(rec models.ActionRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		if err := s.flush(); err != nil {
			s.log.WithError(err).Error("flush failed")
		}
	}
}

// flush appends the pending batch to the room files, keeping queue order.
func (s *Service) flush() error {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return nil
	}
	pending := make([]models.ActionRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	byRoom := make(map[string][]models.ActionRecord)
	var order []string
	for _, rec := range pending {
		if _, seen := byRoom[rec.RoomID]; !seen {
			order = append(order, rec.RoomID)
		}
		byRoom[rec.RoomID] = append(byRoom[rec.RoomID], rec)
	}

	var errs []error
	for _, room := range order {
		if err := s.appendFile(room, byRoom[room]); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.WithField("records", len(pending)).Debug("flushed actions")
	return errors.Join(errs...)
}

func (s *Service) appendFile(room string, recs []models.ActionRecord) error {
	path := filepath.Join(s.cfg.Dir, room+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return f.Close()
}
