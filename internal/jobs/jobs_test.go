package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/phrazzld/querytask/internal/task"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type report struct {
	current int
	total   int
	message string
}

// recordingSink captures progress reports
type recordingSink struct {
	mu      sync.Mutex
	reports []report
	err     error
}

func (s *recordingSink) Report(_ context.Context, current, total int, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.reports = append(s.reports, report{current, total, message})
	return nil
}

func (s *recordingSink) Reports() []report {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]report, len(s.reports))
	copy(out, s.reports)
	return out
}

var _ task.ProgressSink = (*recordingSink)(nil)
