package storage

import (
	"context"
	"fmt"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// ListExercises returns the global exercises plus the user's custom ones,
// ordered by muscle group then name.
func (db *DB) ListExercises(ctx context.Context, userID int) ([]models.ExerciseDefinition, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, name, muscle_group, equipment, subcategory, notes, is_global, created_at
		 FROM exercises
		 WHERE is_global OR user_id = $1
		 ORDER BY muscle_group, name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseDefinition
	for rows.Next() {
		var e models.ExerciseDefinition
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.MuscleGroup, &e.Equipment,
			&e.Subcategory, &e.Notes, &e.IsGlobal, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// InsertExercise inserts a custom exercise row and returns it with the
// store-assigned creation time.
func (db *DB) InsertExercise(ctx context.Context, e models.ExerciseDefinition) (models.ExerciseDefinition, error) {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, user_id, name, muscle_group, equipment, subcategory, notes, is_global)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		e.ID, e.UserID, e.Name, e.MuscleGroup, e.Equipment, e.Subcategory, e.Notes, e.IsGlobal,
	).Scan(&e.CreatedAt)
	if err != nil {
		return models.ExerciseDefinition{}, fmt.Errorf("inserting exercise: %w", err)
	}
	return e, nil
}

// UpdateExercise overwrites the mutable columns of a custom exercise.
// Global rows are never touched; the catalog rejects them before this call.
func (db *DB) UpdateExercise(ctx context.Context, e models.ExerciseDefinition) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises
		 SET name = $2, muscle_group = $3, equipment = $4, subcategory = $5, notes = $6
		 WHERE id = $1 AND NOT is_global`,
		e.ID, e.Name, e.MuscleGroup, e.Equipment, e.Subcategory, e.Notes)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating exercise %s: no row updated", e.ID)
	}
	return nil
}

// DeleteExercise removes a custom exercise. Historical sessions keep their
// name snapshots, so nothing cascades.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	if _, err := db.Pool.Exec(ctx,
		`DELETE FROM exercises WHERE id = $1 AND NOT is_global`, id); err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return nil
}

// CountExercises returns the number of visible exercises, used to decide
// whether the global seed set needs inserting.
func (db *DB) CountExercises(ctx context.Context) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting exercises: %w", err)
	}
	return n, nil
}

// SeedGlobalExercises inserts the pre-seeded global catalog if the exercises
// collection is empty. Idempotent across restarts.
func (db *DB) SeedGlobalExercises(ctx context.Context) error {
	n, err := db.CountExercises(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	seed := []struct {
		name  string
		group models.MuscleGroup
		equip models.Equipment
	}{
		{"Press de Banca", models.MuscleChest, models.EquipBarbell},
		{"Sentadilla", models.MuscleLegs, models.EquipBarbell},
		{"Dominadas", models.MuscleBack, models.EquipBodyweight},
	}
	for _, s := range seed {
		if _, err := db.Pool.Exec(ctx,
			`INSERT INTO exercises (id, user_id, name, muscle_group, equipment, is_global)
			 VALUES ($1, 0, $2, $3, $4, TRUE)
			 ON CONFLICT DO NOTHING`,
			uuid.New(), s.name, s.group, s.equip); err != nil {
			return fmt.Errorf("seeding exercise %s: %w", s.name, err)
		}
	}
	return nil
}
