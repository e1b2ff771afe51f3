package repository

import (
	"context"

	"minoj/internal/common/db"
	appErr "minoj/pkg/errors"
)

// UserRepository handles the solved-problem bookkeeping driven by accepted
// verdicts.
type UserRepository struct {
	db db.Database
}

// NewUserRepository creates a user repository.
func NewUserRepository(database db.Database) *UserRepository {
	return &UserRepository{db: database}
}

// RecordAccepted bumps the user's solved counter on the first accepted
// submission for a problem. The unique key on user_solved_problems makes the
// whole operation idempotent: rejudging an already-solved problem inserts
// nothing and the counter stays put.
func (r *UserRepository) RecordAccepted(ctx context.Context, userID, problemID int64) error {
	err := r.db.Transaction(ctx, func(tx db.Transaction) error {
		res, err := tx.Exec(ctx, `
			INSERT IGNORE INTO user_solved_problems (user_id, problem_id, solved_at)
			VALUES (?, ?, NOW(3))`, userID, problemID)
		if err != nil {
			return err
		}
		inserted, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if inserted == 0 {
			// Already solved before this verdict.
			return nil
		}
		_, err = tx.Exec(ctx, `
			UPDATE users SET solved_count = solved_count + 1 WHERE id = ?`, userID)
		return err
	})
	if err != nil {
		return appErr.Wrapf(err, appErr.DatabaseError, "record accepted failed")
	}
	return nil
}
