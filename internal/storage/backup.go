package storage

import (
	"context"
	"fmt"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// RestoreBackup applies an exported backup document to one user's rows.
// Custom exercises are upserted by id, routine days are matched by weekday
// with their targets replaced wholesale, and archive sessions are inserted
// unless already present. Runs in one transaction so a failure partway
// through leaves the previous state intact.
func (db *DB) RestoreBackup(ctx context.Context, userID int, doc *models.BackupDocument) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning restore: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range doc.Exercises {
		if e.IsGlobal {
			// Global rows come from the seed, not from backups.
			continue
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO exercises (id, user_id, name, muscle_group, equipment, subcategory, notes, is_global)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
			 ON CONFLICT (id) DO UPDATE
				SET name = EXCLUDED.name, muscle_group = EXCLUDED.muscle_group,
				    equipment = EXCLUDED.equipment, subcategory = EXCLUDED.subcategory,
				    notes = EXCLUDED.notes`,
			e.ID, userID, e.Name, e.MuscleGroup, e.Equipment, e.Subcategory, e.Notes); err != nil {
			return fmt.Errorf("restoring exercise %s: %w", e.ID, err)
		}
	}

	// Day rows are provisioned per user and never deleted, so restored days
	// are matched to the user's existing rows by weekday. A user who has
	// never loaded their routine has no rows yet; the document's rows are
	// inserted as-is in that case.
	existing := map[int]uuid.UUID{}
	rows, err := tx.Query(ctx,
		`SELECT id, day_of_week FROM routine_days WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("querying routine days for restore: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		var weekday int
		if err := rows.Scan(&id, &weekday); err != nil {
			rows.Close()
			return fmt.Errorf("scanning routine day for restore: %w", err)
		}
		existing[weekday] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, day := range doc.Routine {
		dayID, ok := existing[day.Weekday]
		if !ok {
			dayID = day.ID
			if _, err := tx.Exec(ctx,
				`INSERT INTO routine_days (id, user_id, day_of_week, name) VALUES ($1, $2, $3, $4)`,
				dayID, userID, day.Weekday, day.Name); err != nil {
				return fmt.Errorf("restoring routine day %d: %w", day.Weekday, err)
			}
		} else {
			if _, err := tx.Exec(ctx,
				`UPDATE routine_days SET name = $2 WHERE id = $1`, dayID, day.Name); err != nil {
				return fmt.Errorf("restoring routine day %d: %w", day.Weekday, err)
			}
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM routine_day_exercises WHERE day_id = $1`, dayID); err != nil {
			return fmt.Errorf("clearing day targets for restore: %w", err)
		}
		for pos, t := range day.Exercises {
			if _, err := tx.Exec(ctx,
				`INSERT INTO routine_day_exercises (id, day_id, exercise_id, position, target_sets, target_reps, rest_seconds, set_type, notes)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				uuid.New(), dayID, t.ExerciseID, pos, t.TargetSets, t.TargetReps, t.RestSeconds, t.SetType, t.Notes); err != nil {
				return fmt.Errorf("restoring day target: %w", err)
			}
		}
	}

	for _, s := range doc.History {
		tag, err := tx.Exec(ctx,
			`INSERT INTO workout_sessions (id, user_id, day_id, date, duration_min, general_notes)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			s.ID, userID, s.SourceDayID, s.Date, s.DurationMinutes, s.GeneralNotes)
		if err != nil {
			return fmt.Errorf("restoring session %s: %w", s.ID, err)
		}
		if tag.RowsAffected() == 0 {
			// Already archived; exports overlap on re-import.
			continue
		}
		for _, e := range s.Exercises {
			rowID := e.ID
			if rowID == uuid.Nil {
				rowID = uuid.New()
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO performed_exercises (id, session_id, exercise_id, exercise_name, notes)
				 VALUES ($1, $2, $3, $4, $5)`,
				rowID, s.ID, e.ExerciseID, e.ExerciseName, e.Notes); err != nil {
				return fmt.Errorf("restoring performed exercise: %w", err)
			}
			for _, set := range e.Sets {
				if _, err := tx.Exec(ctx,
					`INSERT INTO performed_sets (performed_exercise_id, set_number, weight, reps, rir, completed)
					 VALUES ($1, $2, $3, $4, $5, $6)`,
					rowID, set.SetNumber, set.Weight, set.Reps, set.RIR, set.Completed); err != nil {
					return fmt.Errorf("restoring performed set: %w", err)
				}
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing restore: %w", err)
	}
	return nil
}
