// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/amirphl/Jorougumo/config"
	"github.com/codeGROOVE-dev/retry"
	"gopkg.in/natefinch/lumberjack.v2"
)

// PostPublisher is the slice of ContentFlow the scheduler needs.
// This keeps the scheduler independent and easy to test
type PostPublisher interface {
	PublishDue(ctx context.Context, limit int) (int, error)
}

// PostScheduler periodically checks for scheduled posts that are due and publishes them
type PostScheduler struct {
	publisher  PostPublisher
	logger     *log.Logger
	interval   time.Duration
	batchSize  int
	maxRetries uint
}

func NewPostScheduler(publisher PostPublisher, cfg config.SchedulerConfig) *PostScheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	s := &PostScheduler{
		publisher:  publisher,
		interval:   interval,
		batchSize:  batchSize,
		maxRetries: uint(maxRetries),
	}
	s.initSchedulerLogger(cfg)

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a rotating file
func (s *PostScheduler) initSchedulerLogger(cfg config.SchedulerConfig) {
	logPath := cfg.LogPath
	if logPath == "" {
		logPath = "data/scheduler.log"
	}
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    cfg.LogMaxSize, // megabytes
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotator)
	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *PostScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *PostScheduler) runOnce(ctx context.Context) {
	// One tick must never outlive the next by much; a full platform round trip
	// per post bounds the batch well under this.
	tickCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	var published int
	err := retry.Do(
		func() error {
			n, err := s.publisher.PublishDue(tickCtx, s.batchSize)
			published += n
			return err
		},
		retry.Attempts(s.maxRetries),
		retry.Delay(2*time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(tickCtx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Printf("scheduler: publish round attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		s.logger.Printf("scheduler: publish round failed: %v", err)
		return
	}
	if published > 0 {
		s.logger.Printf("scheduler: published %d due posts", published)
	}
}
