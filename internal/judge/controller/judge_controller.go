// Package controller exposes the HTTP surface for submitting code and
// polling judge results.
package controller

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"minoj/internal/judge/model"
	"minoj/internal/judge/queue"
	"minoj/internal/judge/repository"
	appErr "minoj/pkg/errors"
	"minoj/pkg/utils/logger"
	"minoj/pkg/utils/response"
)

// Drainer is an optional best-effort inline drain kicked off after an
// enqueue so small deployments get low latency without waiting for the
// worker tick. Cross-process safety comes from the queue's claim, not from
// this hook.
type Drainer interface {
	DrainOnce(ctx context.Context) int
}

// JudgeController handles submission and run lifecycle requests.
type JudgeController struct {
	submissions *repository.SubmissionRepository
	problems    *repository.ProblemRepository
	judgeJobs   *queue.Store
	runJobs     *queue.Store
	mirror      *repository.StatusMirror
	drainer     Drainer
}

// NewJudgeController creates a new controller. mirror and drainer may be nil.
func NewJudgeController(
	submissions *repository.SubmissionRepository,
	problems *repository.ProblemRepository,
	judgeJobs, runJobs *queue.Store,
	mirror *repository.StatusMirror,
	drainer Drainer,
) *JudgeController {
	return &JudgeController{
		submissions: submissions,
		problems:    problems,
		judgeJobs:   judgeJobs,
		runJobs:     runJobs,
		mirror:      mirror,
		drainer:     drainer,
	}
}

// RegisterRoutes attaches the controller under the given router group.
func (h *JudgeController) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions", h.CreateSubmission)
	rg.GET("/submissions/:id", h.GetSubmission)
	rg.POST("/runs", h.CreateRun)
	rg.GET("/runs/:id", h.GetRun)
	rg.GET("/queue/stats", h.QueueStats)
}

type createSubmissionRequest struct {
	ProblemID  int64  `json:"problemId" binding:"required"`
	UserID     int64  `json:"userId" binding:"required"`
	Language   string `json:"language" binding:"required"`
	Code       string `json:"code" binding:"required"`
	Visibility string `json:"visibility"`
}

// CreateSubmission persists a new submission and enqueues it for judging.
func (h *JudgeController) CreateSubmission(c *gin.Context) {
	var req createSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	language := model.Language(req.Language)
	if !language.Valid() {
		response.Error(c, appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", req.Language))
		return
	}
	visibility := model.Visibility(req.Visibility)
	if visibility == "" {
		visibility = model.VisibilityOnAccept
	}

	ctx := c.Request.Context()
	if _, err := h.problems.GetByID(ctx, req.ProblemID); err != nil {
		response.Error(c, err)
		return
	}

	sub := &model.Submission{
		ID:         uuid.NewString(),
		ProblemID:  req.ProblemID,
		UserID:     req.UserID,
		Code:       req.Code,
		Language:   language,
		Status:     model.StatusPending,
		Visibility: visibility,
	}
	if err := h.submissions.Create(ctx, sub); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.judgeJobs.Enqueue(ctx, sub.ID, ""); err != nil {
		response.Error(c, err)
		return
	}
	h.kickDrain()

	response.Success(c, gin.H{"id": sub.ID, "status": sub.Status})
}

// GetSubmission returns the submission record merged with any live progress.
func (h *JudgeController) GetSubmission(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "submission id required")
		return
	}
	ctx := c.Request.Context()
	sub, err := h.submissions.GetByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	body := gin.H{
		"id":         sub.ID,
		"problemId":  sub.ProblemID,
		"status":     sub.Status,
		"timeUsedMs": sub.TimeUsedMs,
		"detail":     sub.Detail,
		"totalScore": sub.TotalScore,
		"maxScore":   sub.MaxScore,
		"isPublic":   sub.IsPublic,
		"createdAt":  sub.CreatedAt,
	}
	if sub.FailedCase > 0 {
		body["failedCase"] = sub.FailedCase
		body["expectedOutput"] = sub.ExpectedOutput
		body["actualOutput"] = sub.ActualOutput
	}
	if live, err := h.mirror.Get(ctx, id); err == nil && live != nil {
		body["live"] = live
	}
	response.Success(c, body)
}

type createRunRequest struct {
	Language    string `json:"language" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Input       string `json:"input"`
	TimeLimitMs int64  `json:"timeLimitMs"`
}

// CreateRun enqueues an ad-hoc run with an inline payload.
func (h *JudgeController) CreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	language := model.Language(req.Language)
	if !language.Valid() {
		response.Error(c, appErr.Newf(appErr.LanguageNotSupported, "unsupported language %q", req.Language))
		return
	}

	payload, err := json.Marshal(model.RunPayload{
		Code:        req.Code,
		Language:    language,
		Input:       req.Input,
		TimeLimitMs: req.TimeLimitMs,
	})
	if err != nil {
		response.Error(c, appErr.InternalError(err))
		return
	}

	id := uuid.NewString()
	if err := h.runJobs.Enqueue(c.Request.Context(), id, string(payload)); err != nil {
		response.Error(c, err)
		return
	}
	h.kickDrain()

	response.Success(c, gin.H{"id": id})
}

// GetRun reports an ad-hoc run's queue state and, once finished, its outcome.
func (h *JudgeController) GetRun(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "run id required")
		return
	}
	ctx := c.Request.Context()
	job, err := h.runJobs.GetByOwner(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if job == nil {
		response.Error(c, appErr.Newf(appErr.JobNotFound, "run %s not found", id))
		return
	}

	body := gin.H{
		"id":     id,
		"status": job.Status,
	}
	if job.LastError != "" {
		body["error"] = job.LastError
	}
	if live, err := h.mirror.Get(ctx, id); err == nil && live != nil && live.Detail != "" {
		outcome := &model.RunOutcome{}
		if err := json.Unmarshal([]byte(live.Detail), outcome); err == nil {
			body["outcome"] = outcome
		}
	}
	response.Success(c, body)
}

// QueueStats reports per-status counts for both queues.
func (h *JudgeController) QueueStats(c *gin.Context) {
	ctx := c.Request.Context()
	judge, err := h.judgeJobs.Stats(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	run, err := h.runJobs.Stats(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"judge": judge, "run": run})
}

// kickDrain runs one best-effort drain in the background.
func (h *JudgeController) kickDrain() {
	if h.drainer == nil {
		return
	}
	go func() {
		ctx := context.Background()
		if n := h.drainer.DrainOnce(ctx); n > 0 {
			logger.Debug(ctx, "inline drain processed jobs", zap.Int("jobs", n))
		}
	}()
}
