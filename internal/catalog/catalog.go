// Package catalog holds the in-memory exercise catalog and its
// reconciliation with the remote store. Mutations apply optimistically to
// the cached list; a remote rejection triggers a full refetch rather than a
// field-by-field rollback.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// ErrGlobalExercise is returned when a mutation targets a pre-seeded global
// exercise. Only the owning user's custom exercises are mutable.
var ErrGlobalExercise = errors.New("catalog: global exercises are read-only")

// ErrNotFound is returned when no exercise has the given id.
var ErrNotFound = errors.New("catalog: exercise not found")

// Store is the remote collection the catalog persists to.
type Store interface {
	ListExercises(ctx context.Context, userID int) ([]models.ExerciseDefinition, error)
	InsertExercise(ctx context.Context, e models.ExerciseDefinition) (models.ExerciseDefinition, error)
	UpdateExercise(ctx context.Context, e models.ExerciseDefinition) error
	DeleteExercise(ctx context.Context, id uuid.UUID) error
}

// Catalog is the exercise catalog for one signed-in user.
type Catalog struct {
	store  Store
	userID int
	log    *slog.Logger

	mu        sync.Mutex
	exercises []models.ExerciseDefinition
	loaded    bool
}

// New creates a catalog bound to a user. The list is fetched lazily on first
// read.
func New(store Store, userID int, log *slog.Logger) *Catalog {
	return &Catalog{store: store, userID: userID, log: log}
}

// List returns the visible exercises (global plus the user's custom ones).
func (c *Catalog) List(ctx context.Context) ([]models.ExerciseDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]models.ExerciseDefinition, len(c.exercises))
	copy(out, c.exercises)
	return out, nil
}

// GetByID returns the exercise with the given id, or ErrNotFound.
func (c *Catalog) GetByID(ctx context.Context, id uuid.UUID) (models.ExerciseDefinition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return models.ExerciseDefinition{}, err
	}
	for _, e := range c.exercises {
		if e.ID == id {
			return e, nil
		}
	}
	return models.ExerciseDefinition{}, ErrNotFound
}

// Create adds a custom exercise for the user. The row is written remotely
// first so the store-assigned creation time lands in the cache.
func (c *Catalog) Create(ctx context.Context, draft models.ExerciseDraft) (models.ExerciseDefinition, error) {
	if draft.Name == "" {
		return models.ExerciseDefinition{}, fmt.Errorf("catalog: exercise name is required")
	}
	if !draft.MuscleGroup.Valid() {
		return models.ExerciseDefinition{}, fmt.Errorf("catalog: invalid muscle group %q", draft.MuscleGroup)
	}
	if !draft.Equipment.Valid() {
		return models.ExerciseDefinition{}, fmt.Errorf("catalog: invalid equipment %q", draft.Equipment)
	}

	def := models.ExerciseDefinition{
		ID:          uuid.New(),
		UserID:      c.userID,
		Name:        draft.Name,
		MuscleGroup: draft.MuscleGroup,
		Equipment:   draft.Equipment,
		Subcategory: draft.Subcategory,
		Notes:       draft.Notes,
		IsGlobal:    false,
	}

	created, err := c.store.InsertExercise(ctx, def)
	if err != nil {
		return models.ExerciseDefinition{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		c.exercises = append(c.exercises, created)
	}
	return created, nil
}

// Update patches a custom exercise. The cache changes immediately; a remote
// failure discards the optimistic guess by refetching the canonical list.
func (c *Catalog) Update(ctx context.Context, id uuid.UUID, patch models.ExercisePatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := -1
	for i, e := range c.exercises {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	if c.exercises[idx].IsGlobal {
		return ErrGlobalExercise
	}

	patch.Apply(&c.exercises[idx])

	if err := c.store.UpdateExercise(ctx, c.exercises[idx]); err != nil {
		c.log.Warn("exercise update rejected, refetching", "id", id, "error", err)
		c.refetch(ctx)
		return err
	}
	return nil
}

// Delete removes a custom exercise. History keeps its name snapshots, so
// nothing cascades.
func (c *Catalog) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := -1
	for i, e := range c.exercises {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrNotFound
	}
	if c.exercises[idx].IsGlobal {
		return ErrGlobalExercise
	}

	c.exercises = append(c.exercises[:idx], c.exercises[idx+1:]...)

	if err := c.store.DeleteExercise(ctx, id); err != nil {
		c.log.Warn("exercise delete rejected, refetching", "id", id, "error", err)
		c.refetch(ctx)
		return err
	}
	return nil
}

// Reset drops the cached list, forcing a refetch on next read. Called when
// the signed-in user changes.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exercises = nil
	c.loaded = false
}

// ensureLoaded fetches the list on first use. Callers hold c.mu.
func (c *Catalog) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	list, err := c.store.ListExercises(ctx, c.userID)
	if err != nil {
		return fmt.Errorf("loading exercise catalog: %w", err)
	}
	c.exercises = list
	c.loaded = true
	return nil
}

// refetch re-runs the canonical read after a rejected mutation. Callers hold
// c.mu. A failed refetch leaves the cache marked stale for the next read.
func (c *Catalog) refetch(ctx context.Context) {
	list, err := c.store.ListExercises(ctx, c.userID)
	if err != nil {
		c.log.Error("catalog refetch failed", "error", err)
		c.loaded = false
		return
	}
	c.exercises = list
}
