// Package repository provides MySQL persistence for the judge pipeline.
package repository

import (
	"context"
	"encoding/json"

	"minoj/internal/common/db"
	"minoj/internal/judge/model"
	appErr "minoj/pkg/errors"
)

// ProblemRepository reads judging metadata for problems.
type ProblemRepository struct {
	db db.Database
}

// NewProblemRepository creates a problem repository.
func NewProblemRepository(database db.Database) *ProblemRepository {
	return &ProblemRepository{db: database}
}

// GetByID loads one problem with its ordered test cases. The test_cases JSON
// column preserves authoring order, which defines both execution sequence and
// score grouping.
func (r *ProblemRepository) GetByID(ctx context.Context, id int64) (*model.Problem, error) {
	query := `
		SELECT id, time_limit_ms, memory_limit_mb, test_cases
		FROM problems
		WHERE id = ?`

	problem := &model.Problem{}
	var rawCases []byte
	row := r.db.QueryRow(ctx, query, id)
	if err := row.Scan(&problem.ID, &problem.TimeLimitMs, &problem.MemoryLimitMB, &rawCases); err != nil {
		if db.IsNoRows(err) {
			return nil, appErr.Newf(appErr.ProblemNotFound, "problem %d not found", id)
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query problem failed")
	}

	if len(rawCases) > 0 {
		if err := json.Unmarshal(rawCases, &problem.TestCases); err != nil {
			return nil, appErr.Wrapf(err, appErr.JudgeSystemError, "problem %d has malformed test cases", id)
		}
	}
	if len(problem.TestCases) == 0 {
		return nil, appErr.Newf(appErr.TestCasesMissing, "problem %d has no test cases", id)
	}
	return problem, nil
}
