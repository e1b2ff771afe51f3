package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"minoj/internal/common/db"
	"minoj/internal/judge/model"
	appErr "minoj/pkg/errors"
)

// SubmissionRepository owns reads and judge-side writes of submissions.
type SubmissionRepository struct {
	db db.Database
}

// NewSubmissionRepository creates a submission repository.
func NewSubmissionRepository(database db.Database) *SubmissionRepository {
	return &SubmissionRepository{db: database}
}

// GetByID loads the submission a judge job refers to, including any verdict
// fields already written. Verdict columns are nullable until judging lands.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `
		SELECT id, problem_id, user_id, code, language, status, visibility, is_public, created_at,
			time_used_ms, memory_used_kb, detail, failed_case, expected_output, actual_output,
			total_score, max_score
		FROM submissions
		WHERE id = ?`

	sub := &model.Submission{}
	var lang, visibility string
	var timeUsed, memoryUsed sql.NullInt64
	var detail, expected, actual sql.NullString
	var failedCase, totalScore, maxScore sql.NullInt64
	row := r.db.QueryRow(ctx, query, id)
	if err := row.Scan(
		&sub.ID,
		&sub.ProblemID,
		&sub.UserID,
		&sub.Code,
		&lang,
		&sub.Status,
		&visibility,
		&sub.IsPublic,
		&sub.CreatedAt,
		&timeUsed,
		&memoryUsed,
		&detail,
		&failedCase,
		&expected,
		&actual,
		&totalScore,
		&maxScore,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", id)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query submission failed")
	}
	sub.Language = model.Language(lang)
	sub.Visibility = model.Visibility(visibility)
	sub.TimeUsedMs = timeUsed.Int64
	sub.MemoryUsedKB = memoryUsed.Int64
	sub.Detail = detail.String
	sub.FailedCase = int(failedCase.Int64)
	sub.ExpectedOutput = expected.String
	sub.ActualOutput = actual.String
	sub.TotalScore = int(totalScore.Int64)
	sub.MaxScore = int(maxScore.Int64)
	return sub, nil
}

// Create inserts a freshly accepted submission in PENDING state.
func (r *SubmissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	stmt := `
		INSERT INTO submissions
			(id, problem_id, user_id, code, language, status, visibility, is_public, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(3))`
	_, err := r.db.Exec(ctx, stmt,
		sub.ID, sub.ProblemID, sub.UserID, sub.Code, string(sub.Language),
		model.StatusPending, string(sub.Visibility), sub.Visibility == model.VisibilityAlways)
	if err != nil {
		if db.IsDuplicateEntry(err) {
			return appErr.Newf(appErr.InvalidParams, "submission %s already exists", sub.ID)
		}
		return appErr.Wrapf(err, appErr.DatabaseError, "insert submission failed")
	}
	return nil
}

// UpdateProgress overwrites the human-readable detail while a submission is
// still being judged. The status column is untouched so pollers keep seeing
// PENDING until the final verdict lands.
func (r *SubmissionRepository) UpdateProgress(ctx context.Context, id, detail string) error {
	stmt := `UPDATE submissions SET detail = ? WHERE id = ? AND status = ?`
	if _, err := r.db.Exec(ctx, stmt, detail, id, model.StatusPending); err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "update progress failed")
	}
	return nil
}

// SaveVerdict persists the complete judging outcome in one write. Public
// visibility is recomputed here: on_accept submissions become public only
// when the final status is ACCEPTED.
func (r *SubmissionRepository) SaveVerdict(ctx context.Context, sub *model.Submission, verdict *model.JudgeVerdict) error {
	groupScores, err := json.Marshal(verdict.GroupScores)
	if err != nil {
		return appErr.Wrapf(err, appErr.JudgeSystemError, "marshal group scores failed")
	}

	isPublic := sub.Visibility == model.VisibilityAlways ||
		(sub.Visibility == model.VisibilityOnAccept && verdict.Status == model.VerdictAccepted)

	stmt := `
		UPDATE submissions
		SET status = ?,
			time_used_ms = ?,
			memory_used_kb = ?,
			detail = ?,
			failed_case = ?,
			expected_output = ?,
			actual_output = ?,
			total_score = ?,
			max_score = ?,
			group_scores = ?,
			is_public = ?,
			judged_at = NOW(3)
		WHERE id = ?`
	res, err := r.db.Exec(ctx, stmt,
		string(verdict.Status),
		verdict.TimeUsedMs,
		verdict.MemoryUsedKB,
		verdict.Detail,
		verdict.FailedCase,
		verdict.ExpectedOutput,
		verdict.ActualOutput,
		verdict.TotalScore,
		verdict.MaxScore,
		groupScores,
		isPublic,
		sub.ID,
	)
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "save verdict failed")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "save verdict failed")
	}
	if affected == 0 {
		return appErr.Newf(appErr.SubmissionNotFound, "submission %s not found", sub.ID)
	}
	return nil
}
