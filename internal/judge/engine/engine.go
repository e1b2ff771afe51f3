// Package engine judges submissions: it compiles and runs user code against
// a problem's ordered test cases and derives a scored verdict.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"minoj/internal/judge/lang"
	"minoj/internal/judge/model"
	"minoj/internal/judge/sandbox/runner"
	appErr "minoj/pkg/errors"
	"minoj/pkg/utils/logger"
)

const (
	// compileTimeout bounds the compile step independently of the
	// problem's time limit.
	compileTimeout = 10 * time.Second

	// runTimeBuffer is added to every per-case limit to absorb process
	// startup cost.
	runTimeBuffer = 1000 * time.Millisecond

	defaultRunLimitMs = 2000
)

// SubmissionStore is the slice of submission persistence the engine needs.
type SubmissionStore interface {
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	UpdateProgress(ctx context.Context, id, detail string) error
	SaveVerdict(ctx context.Context, sub *model.Submission, verdict *model.JudgeVerdict) error
}

// ProblemStore loads judging metadata.
type ProblemStore interface {
	GetByID(ctx context.Context, id int64) (*model.Problem, error)
}

// UserStore records solved problems.
type UserStore interface {
	RecordAccepted(ctx context.Context, userID, problemID int64) error
}

// StatusPublisher mirrors live judging state for pollers. Implementations
// must be best-effort: a publish failure never fails the job.
type StatusPublisher interface {
	Publish(ctx context.Context, status *model.LiveStatus)
}

// nopPublisher is used when no mirror is configured.
type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *model.LiveStatus) {}

// Engine drives the full judging pipeline for one submission at a time.
type Engine struct {
	runner      runner.Runner
	resolver    *lang.Resolver
	submissions SubmissionStore
	problems    ProblemStore
	users       UserStore
	mirror      StatusPublisher

	// workDir is the parent for per-job workspaces; empty means the OS
	// temp dir.
	workDir string
}

// New creates a judging engine.
func New(r runner.Runner, resolver *lang.Resolver, submissions SubmissionStore, problems ProblemStore, users UserStore, mirror StatusPublisher, workDir string) *Engine {
	if mirror == nil {
		mirror = nopPublisher{}
	}
	return &Engine{
		runner:      r,
		resolver:    resolver,
		submissions: submissions,
		problems:    problems,
		users:       users,
		mirror:      mirror,
		workDir:     workDir,
	}
}

// JudgeSubmission judges one submission end to end and persists the verdict.
// A returned error means the job failed at the system level and the
// submission was left untouched for rejudge; every user-code outcome,
// including compile errors, produces a verdict and a nil error.
func (e *Engine) JudgeSubmission(ctx context.Context, submissionID string) error {
	sub, err := e.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	problem, err := e.problems.GetByID(ctx, sub.ProblemID)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp(e.workDir, "judge-*")
	if err != nil {
		return appErr.Wrapf(err, appErr.JudgeSystemError, "create workspace failed")
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn(ctx, "remove workspace failed", zap.String("dir", dir), zap.Error(err))
		}
	}()

	plan, err := e.prepare(ctx, dir, sub.Code, sub.Language)
	if err != nil {
		return err
	}

	verdict, err := e.score(ctx, sub, problem, plan, dir)
	if err != nil {
		return err
	}

	if err := e.submissions.SaveVerdict(ctx, sub, verdict); err != nil {
		return err
	}
	if verdict.Status == model.VerdictAccepted && e.users != nil {
		if err := e.users.RecordAccepted(ctx, sub.UserID, sub.ProblemID); err != nil {
			// The verdict is already durable; losing the counter bump is
			// recoverable by rejudge.
			logger.Error(ctx, "record accepted failed",
				zap.String("submission", sub.ID), zap.Error(err))
		}
	}
	e.mirror.Publish(ctx, &model.LiveStatus{
		ID:         sub.ID,
		Status:     string(verdict.Status),
		DoneCases:  len(problem.TestCases),
		TotalCases: len(problem.TestCases),
		Percent:    100,
		Detail:     verdict.Detail,
	})
	return nil
}

// prepare resolves the language plan and writes the source into dir under
// the plan's expected file name.
func (e *Engine) prepare(_ context.Context, dir, code string, language model.Language) (*lang.Plan, error) {
	plan, err := e.resolver.Resolve(language, dir)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, plan.SourceFile), []byte(code), 0o644); err != nil {
		return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "write source failed")
	}
	return plan, nil
}

// compile runs the plan's compile step. It returns the compiler's stderr on
// a normal compile failure, or an error for system-level trouble like a
// missing toolchain binary.
func (e *Engine) compile(ctx context.Context, plan *lang.Plan, dir string) (ok bool, output string, err error) {
	if plan.Kind != lang.PlanCompiled {
		return true, "", nil
	}
	out, runErr := e.runner.Run(ctx, runner.Spec{
		Args:    plan.Compile,
		Dir:     dir,
		Timeout: compileTimeout,
	})
	if runErr == nil {
		return true, "", nil
	}
	var exitErr *runner.ExitError
	if errors.As(runErr, &exitErr) {
		msg := out.Stderr
		if msg == "" {
			msg = out.Stdout
		}
		if msg == "" {
			msg = runErr.Error()
		}
		return false, msg, nil
	}
	var timeoutErr *runner.TimeoutError
	if errors.As(runErr, &timeoutErr) {
		return false, "compilation did not finish in time", nil
	}
	// Missing compiler binary or similar: a system fault, not the user's.
	return false, "", appErr.Wrapf(runErr, appErr.SpawnFailed, "compiler unavailable")
}

// score runs every test case in order, accumulating partial credit. It never
// stops early on failure: full group scores require every case to run.
func (e *Engine) score(ctx context.Context, sub *model.Submission, problem *model.Problem, plan *lang.Plan, dir string) (*model.JudgeVerdict, error) {
	compiled, compileOutput, err := e.compile(ctx, plan, dir)
	if err != nil {
		return nil, err
	}
	if !compiled {
		return &model.JudgeVerdict{
			Status: model.VerdictCompilationError,
			Detail: compilationDetail(compileOutput),
		}, nil
	}

	groups := BuildGroups(problem.TestCases)
	verdict := &model.JudgeVerdict{GroupScores: groups}
	for _, g := range groups {
		verdict.MaxScore += g.MaxScore
	}

	limit := caseLimit(problem.TimeLimitMs, plan.TimeMultiplier)
	total := len(problem.TestCases)
	var sawTimeout, sawRuntimeError bool
	passed := 0

	for i, tc := range problem.TestCases {
		e.reportProgress(ctx, sub.ID, i, total)

		out, runErr := e.runner.Run(ctx, runner.Spec{
			Args:    plan.Run,
			Dir:     dir,
			Stdin:   tc.Input,
			Timeout: limit,
		})
		rank := i + 1
		gi := groupIndexFor(verdict.GroupScores, rank)

		switch {
		case runErr == nil:
			actual := NormalizeOutput(out.Stdout)
			expected := NormalizeOutput(tc.Output)
			if actual == expected {
				passed++
				verdict.TotalScore += tc.Score
				if gi >= 0 {
					verdict.GroupScores[gi].EarnedScore += tc.Score
					verdict.GroupScores[gi].PassedCases++
				}
				if ms := out.Duration.Milliseconds(); ms > verdict.TimeUsedMs {
					verdict.TimeUsedMs = ms
				}
				continue
			}
			if verdict.FailedCase == 0 {
				verdict.FailedCase = rank
				verdict.ExpectedOutput = expected
				verdict.ActualOutput = actual
			}

		case isTimeout(runErr):
			// Partial output from a killed process is meaningless.
			sawTimeout = true
			if verdict.FailedCase == 0 {
				verdict.FailedCase = rank
			}

		case isExit(runErr):
			sawRuntimeError = true
			if verdict.FailedCase == 0 {
				verdict.FailedCase = rank
			}

		default:
			// Interpreter missing or the runner itself broke: fail the
			// job rather than charging the user's code.
			return nil, appErr.Wrapf(runErr, appErr.SpawnFailed, "run case %d failed", rank)
		}
	}

	verdict.Status = finalVerdict(verdict.TotalScore, verdict.MaxScore, verdict.FailedCase, sawTimeout, sawRuntimeError)
	verdict.Detail = verdictDetail(verdict, passed, total)
	return verdict, nil
}

// reportProgress persists "processed/total (pct%)" before each case while the
// submission status stays PENDING, and mirrors it for pollers.
func (e *Engine) reportProgress(ctx context.Context, id string, processed, total int) {
	pct := 0
	if total > 0 {
		pct = processed * 100 / total
	}
	detail := fmt.Sprintf("%d/%d (%d%%)", processed, total, pct)
	if err := e.submissions.UpdateProgress(ctx, id, detail); err != nil {
		logger.Warn(ctx, "persist progress failed", zap.String("submission", id), zap.Error(err))
	}
	e.mirror.Publish(ctx, &model.LiveStatus{
		ID:         id,
		Status:     model.StatusPending,
		DoneCases:  processed,
		TotalCases: total,
		Percent:    float64(pct),
		Detail:     detail,
	})
}

// caseLimit derives the per-case wall-clock limit: the problem limit scaled
// by the language multiplier, plus a fixed startup buffer.
func caseLimit(timeLimitMs int64, multiplier float64) time.Duration {
	if timeLimitMs <= 0 {
		timeLimitMs = defaultRunLimitMs
	}
	if multiplier <= 0 {
		multiplier = 1.0
	}
	scaled := time.Duration(float64(timeLimitMs)*multiplier) * time.Millisecond
	return scaled + runTimeBuffer
}

// finalVerdict applies the precedence rules over the accumulated flags.
// Full score with no failure wins outright; any partial credit beats the
// failure categories; among zero-score outcomes TLE outranks RUNTIME_ERROR
// outranks WRONG_ANSWER.
func finalVerdict(totalScore, maxScore, failedCase int, sawTimeout, sawRuntimeError bool) model.Verdict {
	sawFailure := sawTimeout || sawRuntimeError || failedCase != 0
	switch {
	case totalScore == maxScore && !sawFailure:
		return model.VerdictAccepted
	case totalScore > 0:
		return model.VerdictPartial
	case sawTimeout:
		return model.VerdictTimeLimit
	case sawRuntimeError:
		return model.VerdictRuntimeError
	default:
		return model.VerdictWrongAnswer
	}
}

func verdictDetail(v *model.JudgeVerdict, passed, total int) string {
	switch v.Status {
	case model.VerdictAccepted:
		return fmt.Sprintf("Accepted: passed %d/%d cases, score %d/%d", passed, total, v.TotalScore, v.MaxScore)
	case model.VerdictPartial:
		return fmt.Sprintf("Partial: passed %d/%d cases, score %d/%d", passed, total, v.TotalScore, v.MaxScore)
	case model.VerdictTimeLimit:
		return fmt.Sprintf("Time limit exceeded on case %d", v.FailedCase)
	case model.VerdictRuntimeError:
		return fmt.Sprintf("Runtime error on case %d", v.FailedCase)
	default:
		return fmt.Sprintf("Wrong answer on case %d", v.FailedCase)
	}
}

func compilationDetail(output string) string {
	if output == "" {
		return "Compilation failed"
	}
	return "Compilation failed:\n" + output
}

func isTimeout(err error) bool {
	var timeoutErr *runner.TimeoutError
	return errors.As(err, &timeoutErr)
}

func isExit(err error) bool {
	var exitErr *runner.ExitError
	return errors.As(err, &exitErr)
}
