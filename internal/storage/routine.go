package storage

import (
	"context"
	"fmt"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// CountRoutineDays returns the number of routine days provisioned for a user.
func (db *DB) CountRoutineDays(ctx context.Context, userID int) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM routine_days WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting routine days: %w", err)
	}
	return n, nil
}

// InsertRoutineDays inserts the given day rows. Used by the one-time
// seven-day provisioning; ON CONFLICT keeps repeated seeding harmless.
func (db *DB) InsertRoutineDays(ctx context.Context, days []models.RoutineDay) error {
	for _, d := range days {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO routine_days (id, user_id, day_of_week, name)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (user_id, day_of_week) DO NOTHING`,
			d.ID, d.UserID, d.Weekday, d.Name); err != nil {
			return fmt.Errorf("inserting routine day %d: %w", d.Weekday, err)
		}
	}
	return nil
}

// ListRoutineDays returns all seven days with their targets, ordered by
// weekday, targets ordered by position.
func (db *DB) ListRoutineDays(ctx context.Context, userID int) ([]models.RoutineDay, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, day_of_week, name
		 FROM routine_days
		 WHERE user_id = $1
		 ORDER BY day_of_week`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying routine days: %w", err)
	}
	defer rows.Close()

	var days []models.RoutineDay
	for rows.Next() {
		var d models.RoutineDay
		if err := rows.Scan(&d.ID, &d.UserID, &d.Weekday, &d.Name); err != nil {
			return nil, fmt.Errorf("scanning routine day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range days {
		targets, err := db.listDayTargets(ctx, days[i].ID)
		if err != nil {
			return nil, err
		}
		days[i].Exercises = targets
	}
	return days, nil
}

func (db *DB) listDayTargets(ctx context.Context, dayID uuid.UUID) ([]models.DayExerciseTarget, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise_id, position, target_sets, target_reps, rest_seconds, set_type, notes
		 FROM routine_day_exercises
		 WHERE day_id = $1
		 ORDER BY position`,
		dayID)
	if err != nil {
		return nil, fmt.Errorf("querying day targets: %w", err)
	}
	defer rows.Close()

	var targets []models.DayExerciseTarget
	for rows.Next() {
		var t models.DayExerciseTarget
		if err := rows.Scan(&t.ID, &t.ExerciseID, &t.Order, &t.TargetSets,
			&t.TargetReps, &t.RestSeconds, &t.SetType, &t.Notes); err != nil {
			return nil, fmt.Errorf("scanning day target: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// RenameRoutineDay updates a day's display name.
func (db *DB) RenameRoutineDay(ctx context.Context, dayID uuid.UUID, name string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE routine_days SET name = $2 WHERE id = $1`, dayID, name); err != nil {
		return fmt.Errorf("renaming routine day: %w", err)
	}
	return nil
}

// InsertDayTarget inserts one target row. The unique (day_id, exercise_id)
// constraint backs the duplicate guard; ON CONFLICT makes double-adds no-ops
// at the store level too.
func (db *DB) InsertDayTarget(ctx context.Context, dayID uuid.UUID, t models.DayExerciseTarget) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO routine_day_exercises (id, day_id, exercise_id, position, target_sets, target_reps, rest_seconds, set_type, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (day_id, exercise_id) DO NOTHING`,
		t.ID, dayID, t.ExerciseID, t.Order, t.TargetSets, t.TargetReps, t.RestSeconds, t.SetType, t.Notes); err != nil {
		return fmt.Errorf("inserting day target: %w", err)
	}
	return nil
}

// UpdateDayTarget overwrites the mutable columns of one target row.
func (db *DB) UpdateDayTarget(ctx context.Context, t models.DayExerciseTarget) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE routine_day_exercises
		 SET target_sets = $2, target_reps = $3, rest_seconds = $4, set_type = $5, notes = $6
		 WHERE id = $1`,
		t.ID, t.TargetSets, t.TargetReps, t.RestSeconds, t.SetType, t.Notes); err != nil {
		return fmt.Errorf("updating day target: %w", err)
	}
	return nil
}

// DeleteDayTarget removes one target row.
func (db *DB) DeleteDayTarget(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM routine_day_exercises WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting day target: %w", err)
	}
	return nil
}

// UpdateTargetPositions rewrites the position column for every given target.
// Reordering is the only operation that touches more than one row's position
// at once; positions must arrive contiguous 0..N-1.
func (db *DB) UpdateTargetPositions(ctx context.Context, targets []models.DayExerciseTarget) error {
	for _, t := range targets {
		if _, err := db.Pool.Exec(ctx,
			`UPDATE routine_day_exercises SET position = $2 WHERE id = $1`,
			t.ID, t.Order); err != nil {
			return fmt.Errorf("updating target position: %w", err)
		}
	}
	return nil
}
