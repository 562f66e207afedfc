package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dperrin/invoice-archiver/internal/pipeline"
	"go.uber.org/zap"
)

// Scanner periodically runs a full mailbox pass through the processing
// pipeline. Passes are strictly sequential; a pass that fails is logged and
// retried on the next tick.
type Scanner struct {
	pipeline *pipeline.Pipeline
	source   pipeline.MailSource
	interval time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewScanner creates a new mailbox scanner worker.
func NewScanner(p *pipeline.Pipeline, source pipeline.MailSource, interval time.Duration, logger *zap.Logger) *Scanner {
	return &Scanner{
		pipeline: p,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Start starts the scan loop.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scanner is already running")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.isRunning = true
	s.startTime = time.Now()

	s.logger.Info("Starting email box scanner",
		zap.Duration("interval", s.interval))

	go s.scanLoop()

	return nil
}

// Stop stops the scan loop.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}

	s.logger.Info("Scanner stopped")
	return nil
}

// Name returns the worker name for identification.
func (s *Scanner) Name() string {
	return "MailboxScanner"
}

// IsRunning reports whether the scan loop is active.
func (s *Scanner) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scanner) scanLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Scan immediately on start
	s.scan()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debug("Scan loop context cancelled")
			return

		case <-ticker.C:
			s.scan()
		}
	}
}

func (s *Scanner) scan() {
	if err := s.pipeline.ProcessMailbox(s.ctx, s.source); err != nil {
		s.logger.Error("Mailbox pass failed", zap.Error(err))
	}
}
