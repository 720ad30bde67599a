package service

import (
	"context"
	"sync"
	"time"

	"github.com/bcnelson/pricing-catalog/internal/auth"
	"github.com/sirupsen/logrus"
)

// Saver persists pending catalog edits.
type Saver interface {
	SaveChanges(ctx context.Context) error
}

// AutosaveService saves the catalog a short while after the last edit.
// Multiple triggers within the debounce period result in a single save.
type AutosaveService struct {
	saver    Saver
	debounce time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger

	mu          sync.Mutex
	saveTimer   *time.Timer
	savePending bool
	stopped     bool
	inflight    sync.WaitGroup
}

// NewAutosaveService creates a new AutosaveService. timeout bounds each save;
// zero means no extra bound beyond the store's own persist timeout.
func NewAutosaveService(saver Saver, debounce, timeout time.Duration, logger logrus.FieldLogger) *AutosaveService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AutosaveService{
		saver:    saver,
		debounce: debounce,
		timeout:  timeout,
		logger:   logger.WithField("component", "autosave"),
	}
}

// TriggerSave schedules a debounced save. It never blocks on the save itself,
// so it is safe to call from the catalog store's change hook.
func (s *AutosaveService) TriggerSave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}

	s.savePending = true
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if s.stopped {
			// Stop flushes whatever is still pending.
			s.mu.Unlock()
			return
		}
		s.savePending = false
		s.inflight.Add(1)
		s.mu.Unlock()
		defer s.inflight.Done()

		if err := s.doSave(context.Background()); err != nil {
			s.logger.WithError(err).Warn("autosave failed")
		}
	})
}

// Pending reports whether a debounced save is scheduled.
func (s *AutosaveService) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savePending
}

// Flush cancels any scheduled save and saves immediately when one was pending.
func (s *AutosaveService) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	pending := s.savePending
	s.savePending = false
	s.mu.Unlock()

	if !pending {
		return nil
	}
	return s.doSave(ctx)
}

// Stop waits for a save already started by the timer, flushes pending edits
// and ignores later triggers.
func (s *AutosaveService) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Flush(ctx)
}

func (s *AutosaveService) doSave(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	ctx = auth.WithIdentity(ctx, auth.SystemIdentity("autosave"))
	if err := s.saver.SaveChanges(ctx); err != nil {
		return err
	}
	s.logger.Debug("autosave complete")
	return nil
}
