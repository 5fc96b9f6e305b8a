package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"github.com/pkg/errors"
)

type fileDumpPostProcessor struct {
	logger *slog.Logger
	path   string
	now    func() time.Time

	mu sync.Mutex
}

// FileDumpOption configures the file dump Processor.
type FileDumpOption func(*fileDumpPostProcessor)

// WithDumpClock overrides the clock stamping each entry.
func WithDumpClock(now func() time.Time) FileDumpOption {
	return func(p *fileDumpPostProcessor) {
		p.now = now
	}
}

// NewFileDumpPostProcessor returns a Processor appending every received form to the file at path.
// An empty path disables the dump.
func NewFileDumpPostProcessor(path string, opts ...FileDumpOption) Processor {
	_inst := &fileDumpPostProcessor{path: path, now: time.Now, logger: helpers.NewNoopLogger()}
	for _, opt := range opts {
		opt(_inst)
	}
	return _inst
}

func (p *fileDumpPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:fileDump")
}

func (p *fileDumpPostProcessor) Process(_ context.Context, bus *relay.Bus) error {
	if p.path == "" {
		return nil
	}
	if err := p.append(bus); err != nil {
		p.logger.Warn("failed to dump notification", slog.String("requestID", bus.ID), slog.String("path", p.path), slog.Any("error", err))
	}
	return nil
}

func (p *fileDumpPostProcessor) append(bus *relay.Bus) error {
	data, err := json.MarshalIndent(bus.Notification.Params(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode form")
	}
	entry := fmt.Sprintf("Received at %s:\n%s\n\n", p.now().UTC().Format(time.RFC3339), data)

	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := os.OpenFile(p.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open dump file")
	}
	if _, err = f.WriteString(entry); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "failed to write dump file")
	}
	return f.Close()
}
