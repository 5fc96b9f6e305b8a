package processor

import (
	"context"
	"log/slog"

	"github.com/isometry/twilio-fm-relay/internal/controllers/filemaker"
	"github.com/isometry/twilio-fm-relay/internal/helpers"
	"github.com/isometry/twilio-fm-relay/internal/relay"
	"golang.org/x/time/rate"
)

type fileMakerWriter struct {
	logger     *slog.Logger
	controller *filemaker.Controller
	mode       relay.WriteMode
	layout     string
	script     string
	throttle   *rate.Sometimes
}

// NewFileMakerWriter returns a Processor performing exactly one write per notification inside its own
// FileMaker session. A nil controller skips the write.
func NewFileMakerWriter(controller *filemaker.Controller, mode relay.WriteMode, layout, script string, opts ...Option) Processor {
	_inst := &fileMakerWriter{
		controller: controller,
		mode:       mode,
		layout:     layout,
		script:     script,
		logger:     helpers.NewNoopLogger(),
		throttle:   helpers.NewThrottle(),
	}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *fileMakerWriter) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("writer:filemaker")
}

func (p *fileMakerWriter) Process(ctx context.Context, bus *relay.Bus) error {
	logger := p.logger.With(slog.Any("request", bus))
	if p.mode == relay.WriteModeNone {
		logger.Info("notification logged", slog.Any("record", bus.Record), slog.String("message", bus.Message))
		return nil
	}
	if p.controller == nil {
		p.throttle.Do(func() {
			logger.Warn("FileMaker host not configured, notifications will not be written")
		})
		return nil
	}

	session, err := p.controller.Login(ctx)
	if err != nil {
		f := &relay.AuthError{Cause: err}
		bus.Fail(f)
		logger.Error("failed to open FileMaker session", slog.Any("error", f))
		return nil
	}
	defer func() {
		if err := session.Logout(ctx); err != nil {
			f := &relay.TeardownError{Cause: err}
			bus.Fail(f)
			logger.Warn("failed to close FileMaker session", slog.Any("error", f))
		}
	}()

	switch p.mode {
	case relay.WriteModeScript:
		err = p.runScript(ctx, logger, session, bus)
	default:
		err = p.createRecord(ctx, logger, session, bus)
	}
	if err != nil {
		f := &relay.WriteError{Mode: p.mode, Cause: err}
		bus.Fail(f)
		logger.Error("failed to write to FileMaker", slog.Any("error", f))
		return nil
	}
	bus.Written = true
	return nil
}

func (p *fileMakerWriter) createRecord(ctx context.Context, logger *slog.Logger, session *filemaker.Session, bus *relay.Bus) error {
	recordID, err := session.CreateRecord(ctx, p.layout, bus.Record)
	if err != nil {
		return err
	}
	logger.Info("record created", slog.String("layout", p.layout), slog.String("recordID", recordID))
	return nil
}

func (p *fileMakerWriter) runScript(ctx context.Context, logger *slog.Logger, session *filemaker.Session, bus *relay.Bus) error {
	param := bus.Message
	if param == "" {
		var err error
		if param, err = filemaker.ScriptParam(bus.Record); err != nil {
			return err
		}
	}
	result, err := session.RunScript(ctx, p.layout, p.script, param)
	if err != nil {
		return err
	}
	logger.Info("script executed", slog.String("script", p.script), slog.String("result", result.Result))
	return nil
}
