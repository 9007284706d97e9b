package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/querytask/internal/task"
)

// LongTaskResult is the value every successful long job returns.
const LongTaskResult = 42

// MaxLongTaskSteps bounds explicit step counts in long job payloads.
const MaxLongTaskSteps = 1000

var (
	longTaskVerbs      = []string{"Starting up", "Booting", "Repairing", "Loading", "Checking"}
	longTaskAdjectives = []string{"master", "radiant", "silent", "harmonic", "fast"}
	longTaskNouns      = []string{"solar array", "particle reshaper", "cosmic ray", "orbiter", "bit"}
)

// LongTaskConfig holds configuration for the simulated long job
type LongTaskConfig struct {
	// StepDelay is how long each step takes
	StepDelay time.Duration

	// MinSteps and MaxSteps bound the random step count used when the
	// payload does not ask for one
	MinSteps int
	MaxSteps int

	// RerollProbability is the chance a step picks a new status message
	RerollProbability float64
}

// DefaultLongTaskConfig returns a LongTaskConfig with reasonable defaults
func DefaultLongTaskConfig() LongTaskConfig {
	return LongTaskConfig{
		StepDelay:         time.Second,
		MinSteps:          10,
		MaxSteps:          50,
		RerollProbability: 0.25,
	}
}

// LongTaskPayload is the JSON payload of a long job.
type LongTaskPayload struct {
	Steps int `json:"steps"`
}

// LongTask simulates a multi-step job that reports progress after each step.
type LongTask struct {
	config LongTaskConfig
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLongTask creates a LongTask seeded from the runtime's random source.
func NewLongTask(config LongTaskConfig, logger *slog.Logger) *LongTask {
	return NewLongTaskWithRand(config, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), logger)
}

// NewLongTaskWithRand creates a LongTask drawing from rng.
func NewLongTaskWithRand(config LongTaskConfig, rng *rand.Rand, logger *slog.Logger) *LongTask {
	if config.MinSteps < 1 {
		config.MinSteps = 1
	}
	if config.MaxSteps < config.MinSteps {
		config.MaxSteps = config.MinSteps
	}
	return &LongTask{
		config: config,
		logger: logger.With("component", "long_task"),
		rng:    rng,
	}
}

// Handle implements task.Handler for long jobs.
func (l *LongTask) Handle(ctx context.Context, payload string, progress task.ProgressSink) (any, error) {
	steps, err := l.parseSteps(payload)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("starting long task", "steps", steps, "step_delay", l.config.StepDelay)

	message := ""
	for i := 1; i <= steps; i++ {
		if err := l.sleep(ctx); err != nil {
			return nil, err
		}
		if message == "" || l.float() < l.config.RerollProbability {
			message = l.message()
		}
		if err := progress.Report(ctx, i, steps, message); err != nil {
			return nil, err
		}
	}

	return LongTaskResult, nil
}

func (l *LongTask) parseSteps(payload string) (int, error) {
	var p LongTaskPayload
	if trimmed := strings.TrimSpace(payload); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}

	switch {
	case p.Steps < 0 || p.Steps > MaxLongTaskSteps:
		return 0, fmt.Errorf("%w: steps must be between 0 and %d, got %d", ErrInvalidPayload, MaxLongTaskSteps, p.Steps)
	case p.Steps == 0:
		return l.randomSteps(), nil
	default:
		return p.Steps, nil
	}
}

func (l *LongTask) sleep(ctx context.Context) error {
	if l.config.StepDelay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(l.config.StepDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (l *LongTask) randomSteps() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config.MinSteps + l.rng.IntN(l.config.MaxSteps-l.config.MinSteps+1)
}

func (l *LongTask) float() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rng.Float64()
}

func (l *LongTask) message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fmt.Sprintf("%s %s %s...",
		longTaskVerbs[l.rng.IntN(len(longTaskVerbs))],
		longTaskAdjectives[l.rng.IntN(len(longTaskAdjectives))],
		longTaskNouns[l.rng.IntN(len(longTaskNouns))])
}
