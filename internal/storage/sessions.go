package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// InsertSession creates the remote session row. The lifecycle manager calls
// this eagerly at start so that incremental per-exercise saves have a parent
// to attach to.
func (db *DB) InsertSession(ctx context.Context, id uuid.UUID, userID int, dayID uuid.UUID, date time.Time) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (id, user_id, day_id, date, duration_min, general_notes)
		 VALUES ($1, $2, $3, $4, 0, '')`,
		id, userID, dayID, date); err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// UpdateSessionMeta writes the final duration and notes onto a session row.
// Called once at finish, after every exercise save has been attempted.
func (db *DB) UpdateSessionMeta(ctx context.Context, id uuid.UUID, durationMin int, generalNotes string) error {
	if _, err := db.Pool.Exec(ctx,
		`UPDATE workout_sessions SET duration_min = $2, general_notes = $3 WHERE id = $1`,
		id, durationMin, generalNotes); err != nil {
		return fmt.Errorf("updating session meta: %w", err)
	}
	return nil
}

// InsertPerformedExercise appends one performed-exercise row to a session and
// returns the new row id. The exercise name arrives already snapshotted.
func (db *DB) InsertPerformedExercise(ctx context.Context, sessionID uuid.UUID, e models.PerformedExercise) (uuid.UUID, error) {
	id := uuid.New()
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO performed_exercises (id, session_id, exercise_id, exercise_name, notes)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, sessionID, e.ExerciseID, e.ExerciseName, e.Notes); err != nil {
		return uuid.Nil, fmt.Errorf("inserting performed exercise: %w", err)
	}
	return id, nil
}

// InsertPerformedSets batch-inserts set rows for a performed exercise.
func (db *DB) InsertPerformedSets(ctx context.Context, performedExerciseID uuid.UUID, sets []models.PerformedSet) error {
	if len(sets) == 0 {
		return nil
	}

	query := `INSERT INTO performed_sets (performed_exercise_id, set_number, weight, reps, rir, completed) VALUES `
	args := make([]any, 0, len(sets)*6)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6,
		))
		args = append(args, performedExerciseID, s.SetNumber, s.Weight, s.Reps, s.RIR, s.Completed)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := db.Pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting performed sets: %w", err)
	}
	return nil
}

// ListSessions returns the session archive newest first, with nested
// exercises and sets. A zero since means no lower bound.
func (db *DB) ListSessions(ctx context.Context, userID int, since time.Time) ([]models.PerformedSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, day_id, date, duration_min, general_notes
		 FROM workout_sessions
		 WHERE user_id = $1 AND ($2::timestamptz IS NULL OR date >= $2)
		 ORDER BY date DESC`,
		userID, nullableTime(since))
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PerformedSession
	for rows.Next() {
		var s models.PerformedSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.SourceDayID, &s.Date, &s.DurationMinutes, &s.GeneralNotes); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		exercises, err := db.listPerformedExercises(ctx, sessions[i].ID)
		if err != nil {
			return nil, err
		}
		sessions[i].Exercises = exercises
	}
	return sessions, nil
}

func (db *DB) listPerformedExercises(ctx context.Context, sessionID uuid.UUID) ([]models.PerformedExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, exercise_id, exercise_name, notes
		 FROM performed_exercises
		 WHERE session_id = $1
		 ORDER BY created_at`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying performed exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.PerformedExercise
	for rows.Next() {
		var e models.PerformedExercise
		if err := rows.Scan(&e.ID, &e.ExerciseID, &e.ExerciseName, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning performed exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range exercises {
		sets, err := db.listPerformedSets(ctx, exercises[i].ID)
		if err != nil {
			return nil, err
		}
		exercises[i].Sets = sets
	}
	return exercises, nil
}

func (db *DB) listPerformedSets(ctx context.Context, performedExerciseID uuid.UUID) ([]models.PerformedSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT set_number, weight, reps, rir, completed
		 FROM performed_sets
		 WHERE performed_exercise_id = $1
		 ORDER BY set_number`,
		performedExerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying performed sets: %w", err)
	}
	defer rows.Close()

	var sets []models.PerformedSet
	for rows.Next() {
		var s models.PerformedSet
		if err := rows.Scan(&s.SetNumber, &s.Weight, &s.Reps, &s.RIR, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning performed set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

// InsertPastSession archives a complete session in one call, for workouts
// logged after the fact. Exercises and sets arrive pre-filtered and
// name-snapshotted by the caller.
func (db *DB) InsertPastSession(ctx context.Context, s models.PerformedSession) error {
	if err := db.InsertSession(ctx, s.ID, s.UserID, s.SourceDayID, s.Date); err != nil {
		return err
	}
	if err := db.UpdateSessionMeta(ctx, s.ID, s.DurationMinutes, s.GeneralNotes); err != nil {
		return err
	}
	for _, e := range s.Exercises {
		id, err := db.InsertPerformedExercise(ctx, s.ID, e)
		if err != nil {
			return err
		}
		if err := db.InsertPerformedSets(ctx, id, e.Sets); err != nil {
			return err
		}
	}
	return nil
}

// nullableTime maps the zero time to NULL for optional range bounds.
func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
