package engine

import (
	"context"
	"os"

	"go.uber.org/zap"

	"minoj/internal/judge/model"
	"minoj/internal/judge/sandbox/runner"
	appErr "minoj/pkg/errors"
	"minoj/pkg/utils/logger"
)

// RunOnce executes an ad-hoc run: compile if needed, then run the code once
// against the provided input. Everything attributable to the code, including
// a missing interpreter, comes back as an outcome; a returned error means the
// host itself misbehaved and the queue job should be failed.
func (e *Engine) RunOnce(ctx context.Context, payload *model.RunPayload) (*model.RunOutcome, error) {
	if !payload.Language.Valid() {
		return nil, appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", payload.Language)
	}

	dir, err := os.MkdirTemp(e.workDir, "run-*")
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "create workspace failed")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn(ctx, "remove workspace failed", zap.String("dir", dir), zap.Error(err))
		}
	}()

	plan, err := e.prepare(ctx, dir, payload.Code, payload.Language)
	if err != nil {
		return nil, err
	}

	compiled, compileOutput, err := e.compile(ctx, plan, dir)
	if err != nil {
		// Compiler binary missing is an operator problem for judged
		// submissions, but for ad-hoc runs we report it to the caller.
		return &model.RunOutcome{Status: model.RunError, Stderr: err.Error()}, nil
	}
	if !compiled {
		return &model.RunOutcome{Status: model.RunCompilationError, Stderr: compileOutput}, nil
	}

	out, runErr := e.runner.Run(ctx, runner.Spec{
		Args:    plan.Run,
		Dir:     dir,
		Stdin:   payload.Input,
		Timeout: caseLimit(payload.TimeLimitMs, plan.TimeMultiplier),
	})
	outcome := &model.RunOutcome{
		Stdout: out.Stdout,
		Stderr: out.Stderr,
		TimeMs: out.Duration.Milliseconds(),
	}
	switch {
	case runErr == nil:
		outcome.OK = true
		outcome.Status = model.RunOK
	case isTimeout(runErr):
		outcome.Status = model.RunTimeLimit
		outcome.Stdout = ""
		outcome.Stderr = ""
	case isExit(runErr):
		outcome.Status = model.RunRuntimeError
	default:
		outcome.Status = model.RunError
		outcome.Stderr = runErr.Error()
	}
	return outcome, nil
}
