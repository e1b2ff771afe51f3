// Package worker drives the polling loop that drains both job queues.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"minoj/internal/common/config"
	"minoj/internal/judge/model"
	"minoj/internal/judge/queue"
	"minoj/pkg/utils/contextkey"
	"minoj/pkg/utils/logger"
)

const (
	defaultTickInterval = 2 * time.Second
	defaultJobsPerTick  = 2
)

// JobStore is the queue surface the worker consumes.
type JobStore interface {
	ClaimNext(ctx context.Context) (*queue.Job, error)
	Complete(ctx context.Context, id int64) error
	Fail(ctx context.Context, id int64, errorMessage string) error
	Stats(ctx context.Context) (queue.Stats, error)
}

// Judger judges one submission identified by the job's owner id.
type Judger interface {
	JudgeSubmission(ctx context.Context, submissionID string) error
}

// OneShotRunner executes an ad-hoc run payload.
type OneShotRunner interface {
	RunOnce(ctx context.Context, payload *model.RunPayload) (*model.RunOutcome, error)
}

// ResultPublisher exposes run outcomes and live state to pollers.
type ResultPublisher interface {
	Publish(ctx context.Context, status *model.LiveStatus)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *model.LiveStatus) {}

// Config tunes the polling loop.
type Config struct {
	TickInterval config.Duration `yaml:"tickInterval"`
	JobsPerTick  int             `yaml:"jobsPerTick"`
}

func (c *Config) applyDefaults() {
	if c.TickInterval <= 0 {
		c.TickInterval = config.Duration(defaultTickInterval)
	}
	if c.JobsPerTick <= 0 {
		c.JobsPerTick = defaultJobsPerTick
	}
}

// Worker polls the judge and run queues on a fixed tick and dispatches
// claimed jobs. It is restart-safe: all state lives in the queue tables.
type Worker struct {
	cfg       Config
	judgeJobs JobStore
	runJobs   JobStore
	judger    Judger
	runner    OneShotRunner
	publisher ResultPublisher
}

// New creates a worker. publisher may be nil.
func New(cfg Config, judgeJobs, runJobs JobStore, judger Judger, runner OneShotRunner, publisher ResultPublisher) *Worker {
	cfg.applyDefaults()
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &Worker{
		cfg:       cfg,
		judgeJobs: judgeJobs,
		runJobs:   runJobs,
		judger:    judger,
		runner:    runner,
		publisher: publisher,
	}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	logger.Info(ctx, "worker started",
		zap.Duration("tick", w.cfg.TickInterval.Std()),
		zap.Int("jobsPerTick", w.cfg.JobsPerTick))

	ticker := time.NewTicker(w.cfg.TickInterval.Std())
	defer ticker.Stop()
	statsEvery := time.NewTicker(time.Minute)
	defer statsEvery.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "worker stopping")
			return
		case <-statsEvery.C:
			w.logStats(ctx)
		case <-ticker.C:
			w.DrainOnce(ctx)
		}
	}
}

// DrainOnce claims and processes up to JobsPerTick jobs from each queue and
// returns the number processed. It is also the entry point for the inline
// best-effort drain triggered right after an enqueue; correctness under that
// concurrency rests on the queue's conditional claim, not on this method.
func (w *Worker) DrainOnce(ctx context.Context) int {
	processed := 0
	for i := 0; i < w.cfg.JobsPerTick; i++ {
		job, err := w.judgeJobs.ClaimNext(ctx)
		if err != nil {
			logger.Error(ctx, "claim judge job failed", zap.Error(err))
			break
		}
		if job == nil {
			break
		}
		w.processJudgeJob(ctx, job)
		processed++
	}
	for i := 0; i < w.cfg.JobsPerTick; i++ {
		job, err := w.runJobs.ClaimNext(ctx)
		if err != nil {
			logger.Error(ctx, "claim run job failed", zap.Error(err))
			break
		}
		if job == nil {
			break
		}
		w.processRunJob(ctx, job)
		processed++
	}
	return processed
}

// processJudgeJob dispatches one claimed judge job. Panics and errors are
// confined to the job: the rest of the tick proceeds.
func (w *Worker) processJudgeJob(ctx context.Context, job *queue.Job) {
	ctx = context.WithValue(ctx, contextkey.JobID, job.ID)
	ctx = context.WithValue(ctx, contextkey.SubmissionID, job.OwnerID)
	defer w.recoverJob(ctx, job, w.judgeJobs)

	logger.Info(ctx, "judging submission")

	if err := w.judger.JudgeSubmission(ctx, job.OwnerID); err != nil {
		logger.Error(ctx, "judge job failed",
			zap.Int64("job", job.ID), zap.String("submission", job.OwnerID), zap.Error(err))
		w.finishFail(ctx, w.judgeJobs, job, err.Error())
		return
	}
	w.finishComplete(ctx, w.judgeJobs, job)
}

// processRunJob dispatches one claimed ad-hoc run job. The outcome goes to
// the result publisher keyed by the job's owner id.
func (w *Worker) processRunJob(ctx context.Context, job *queue.Job) {
	ctx = context.WithValue(ctx, contextkey.JobID, job.ID)
	defer w.recoverJob(ctx, job, w.runJobs)

	payload := &model.RunPayload{}
	if err := json.Unmarshal([]byte(job.Payload), payload); err != nil {
		w.finishFail(ctx, w.runJobs, job, fmt.Sprintf("malformed payload: %v", err))
		return
	}

	outcome, err := w.runner.RunOnce(ctx, payload)
	if err != nil {
		logger.Error(ctx, "run job failed", zap.Int64("job", job.ID), zap.Error(err))
		w.finishFail(ctx, w.runJobs, job, err.Error())
		return
	}

	encoded, err := json.Marshal(outcome)
	if err != nil {
		w.finishFail(ctx, w.runJobs, job, fmt.Sprintf("encode outcome: %v", err))
		return
	}
	w.publisher.Publish(ctx, &model.LiveStatus{
		ID:     job.OwnerID,
		Status: string(outcome.Status),
		Detail: string(encoded),
	})
	w.finishComplete(ctx, w.runJobs, job)
}

func (w *Worker) recoverJob(ctx context.Context, job *queue.Job, store JobStore) {
	if r := recover(); r != nil {
		logger.Error(ctx, "job panicked",
			zap.Int64("job", job.ID), zap.Any("panic", r))
		w.finishFail(ctx, store, job, fmt.Sprintf("panic: %v", r))
	}
}

func (w *Worker) finishComplete(ctx context.Context, store JobStore, job *queue.Job) {
	if err := store.Complete(ctx, job.ID); err != nil {
		logger.Error(ctx, "mark job completed failed", zap.Int64("job", job.ID), zap.Error(err))
	}
}

func (w *Worker) finishFail(ctx context.Context, store JobStore, job *queue.Job, message string) {
	if err := store.Fail(ctx, job.ID, message); err != nil {
		logger.Error(ctx, "mark job failed failed", zap.Int64("job", job.ID), zap.Error(err))
	}
}

func (w *Worker) logStats(ctx context.Context) {
	judge, err := w.judgeJobs.Stats(ctx)
	if err != nil {
		logger.Warn(ctx, "judge queue stats failed", zap.Error(err))
		return
	}
	run, err := w.runJobs.Stats(ctx)
	if err != nil {
		logger.Warn(ctx, "run queue stats failed", zap.Error(err))
		return
	}
	logger.Info(ctx, "queue stats",
		zap.Int64("judgePending", judge.Pending),
		zap.Int64("judgeRunning", judge.Running),
		zap.Int64("judgeFailed", judge.Failed),
		zap.Int64("runPending", run.Pending),
		zap.Int64("runRunning", run.Running),
		zap.Int64("runFailed", run.Failed))
}
