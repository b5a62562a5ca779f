// Package monitor periodically writes the coordinator status to a file so a
// long replay or a lingering broadcast session can be watched from outside.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/framereview/annotations/internal/coordinator"
)

const defaultInterval = time.Second

// StatusSource is anything that can report coordinator status.
type StatusSource interface {
	Status() coordinator.Status
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Source   StatusSource
	Logger   *slog.Logger
	Path     string
	Interval time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = defaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Snapshot returns the current status and its indented JSON rendering.
func (s *Service) Snapshot() ([]byte, coordinator.Status) {
	st := s.deps.Source.Status()
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		out = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
	}
	return out, st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	statusFile, err := os.Create(s.deps.Path)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("creating status file: %w", err)
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer statusFile.Close()
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "path", s.deps.Path, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		s.write(statusFile)
		for {
			select {
			case <-stop:
				s.write(statusFile)
				return
			case <-ticker.C:
				s.write(statusFile)
			}
		}
	}()

	return nil
}

func (s *Service) write(f *os.File) {
	out, st := s.Snapshot()
	if err := f.Truncate(0); err != nil {
		s.deps.Logger.Error("Error truncating status file", "error", err)
		return
	}
	if _, err := f.Seek(0, 0); err != nil {
		s.deps.Logger.Error("Error rewinding status file", "error", err)
		return
	}
	if _, err := f.Write(append(out, '\n')); err != nil {
		s.deps.Logger.Error("Error writing status file", "error", err)
		return
	}
	s.deps.Logger.Debug("Status", "editors", st.Editors, "queued", st.Queued, "bookmarks", st.Bookmarks)
}

// Stop stops the status monitor and waits for the final write.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
