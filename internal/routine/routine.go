// Package routine holds the weekly plan: seven weekday rows, each with an
// ordered list of exercise targets. Mutations apply optimistically to the
// cached plan and are pushed to the remote store; a rejection triggers a
// refetch of the canonical plan.
package routine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// ErrDayNotFound is returned when no routine day has the given id.
var ErrDayNotFound = errors.New("routine: day not found")

// ErrIndexOutOfRange is returned when a target index does not address an
// existing exercise of the day.
var ErrIndexOutOfRange = errors.New("routine: exercise index out of range")

// Store is the remote collection pair (days, day targets) the plan persists to.
type Store interface {
	CountRoutineDays(ctx context.Context, userID int) (int, error)
	InsertRoutineDays(ctx context.Context, days []models.RoutineDay) error
	ListRoutineDays(ctx context.Context, userID int) ([]models.RoutineDay, error)
	RenameRoutineDay(ctx context.Context, dayID uuid.UUID, name string) error
	InsertDayTarget(ctx context.Context, dayID uuid.UUID, t models.DayExerciseTarget) error
	UpdateDayTarget(ctx context.Context, t models.DayExerciseTarget) error
	DeleteDayTarget(ctx context.Context, id uuid.UUID) error
	UpdateTargetPositions(ctx context.Context, targets []models.DayExerciseTarget) error
}

// Plan is the weekly routine for one signed-in user.
type Plan struct {
	store  Store
	userID int
	log    *slog.Logger

	mu     sync.Mutex
	days   []models.RoutineDay
	loaded bool
}

// New creates a plan bound to a user. Days are provisioned and fetched
// lazily on first read.
func New(store Store, userID int, log *slog.Logger) *Plan {
	return &Plan{store: store, userID: userID, log: log}
}

// ListDays returns all seven days ordered by weekday, provisioning them on
// first access for a new user.
func (p *Plan) ListDays(ctx context.Context) ([]models.RoutineDay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	out := make([]models.RoutineDay, len(p.days))
	copy(out, p.days)
	return out, nil
}

// Day returns one day by id.
func (p *Plan) Day(ctx context.Context, dayID uuid.UUID) (models.RoutineDay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return models.RoutineDay{}, err
	}
	d := p.findDay(dayID)
	if d == nil {
		return models.RoutineDay{}, ErrDayNotFound
	}
	return *d, nil
}

// RenameDay updates a day's display name.
func (p *Plan) RenameDay(ctx context.Context, dayID uuid.UUID, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return err
	}
	d := p.findDay(dayID)
	if d == nil {
		return ErrDayNotFound
	}

	d.Name = name
	if err := p.store.RenameRoutineDay(ctx, dayID, name); err != nil {
		p.log.Warn("day rename rejected, refetching", "day", dayID, "error", err)
		p.refetch(ctx)
		return err
	}
	return nil
}

// AddExerciseToDay appends a target with plan defaults. Adding an exercise
// the day already targets is a no-op.
func (p *Plan) AddExerciseToDay(ctx context.Context, dayID, exerciseID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return err
	}
	d := p.findDay(dayID)
	if d == nil {
		return ErrDayNotFound
	}
	if d.ContainsExercise(exerciseID) {
		return nil
	}

	target := models.DayExerciseTarget{
		ID:          uuid.New(),
		ExerciseID:  exerciseID,
		Order:       len(d.Exercises),
		TargetSets:  models.DefaultTargetSets,
		TargetReps:  models.DefaultTargetReps,
		RestSeconds: models.DefaultRestSeconds,
		SetType:     models.SetTypeNormal,
	}
	d.Exercises = append(d.Exercises, target)

	if err := p.store.InsertDayTarget(ctx, dayID, target); err != nil {
		p.log.Warn("target insert rejected, refetching", "day", dayID, "error", err)
		p.refetch(ctx)
		return err
	}
	return nil
}

// UpdateDayExercise patches the target at index. Rep-range edits reclassify
// the set type unless it is pinned to dropset or amrap.
func (p *Plan) UpdateDayExercise(ctx context.Context, dayID uuid.UUID, index int, patch models.TargetPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return err
	}
	d := p.findDay(dayID)
	if d == nil {
		return ErrDayNotFound
	}
	if index < 0 || index >= len(d.Exercises) {
		return ErrIndexOutOfRange
	}

	patch.Apply(&d.Exercises[index])

	if err := p.store.UpdateDayTarget(ctx, d.Exercises[index]); err != nil {
		p.log.Warn("target update rejected, refetching", "day", dayID, "error", err)
		p.refetch(ctx)
		return err
	}
	return nil
}

// RemoveExerciseFromDay deletes the target at index and renumbers the rest
// so positions stay contiguous.
func (p *Plan) RemoveExerciseFromDay(ctx context.Context, dayID uuid.UUID, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return err
	}
	d := p.findDay(dayID)
	if d == nil {
		return ErrDayNotFound
	}
	if index < 0 || index >= len(d.Exercises) {
		return ErrIndexOutOfRange
	}

	removed := d.Exercises[index]
	d.Exercises = append(d.Exercises[:index], d.Exercises[index+1:]...)
	renumber(d.Exercises)

	if err := p.store.DeleteDayTarget(ctx, removed.ID); err != nil {
		p.log.Warn("target delete rejected, refetching", "day", dayID, "error", err)
		p.refetch(ctx)
		return err
	}
	if err := p.store.UpdateTargetPositions(ctx, d.Exercises); err != nil {
		p.log.Warn("position renumber rejected, refetching", "day", dayID, "error", err)
		p.refetch(ctx)
		return err
	}
	return nil
}

// ReorderExerciseInDay moves the target at fromIndex to toIndex and rewrites
// every affected position so the order stays contiguous 0..N-1.
func (p *Plan) ReorderExerciseInDay(ctx context.Context, dayID uuid.UUID, fromIndex, toIndex int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureLoaded(ctx); err != nil {
		return err
	}
	d := p.findDay(dayID)
	if d == nil {
		return ErrDayNotFound
	}
	n := len(d.Exercises)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return ErrIndexOutOfRange
	}
	if fromIndex == toIndex {
		return nil
	}

	moved := d.Exercises[fromIndex]
	d.Exercises = append(d.Exercises[:fromIndex], d.Exercises[fromIndex+1:]...)
	d.Exercises = append(d.Exercises[:toIndex], append([]models.DayExerciseTarget{moved}, d.Exercises[toIndex:]...)...)
	renumber(d.Exercises)

	if err := p.store.UpdateTargetPositions(ctx, d.Exercises); err != nil {
		p.log.Warn("reorder rejected, refetching", "day", dayID, "error", err)
		p.refetch(ctx)
		return err
	}
	return nil
}

// Reset drops the cached plan, forcing a refetch on next read. Called when
// the signed-in user changes.
func (p *Plan) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.days = nil
	p.loaded = false
}

func renumber(targets []models.DayExerciseTarget) {
	for i := range targets {
		targets[i].Order = i
	}
}

func (p *Plan) findDay(dayID uuid.UUID) *models.RoutineDay {
	for i := range p.days {
		if p.days[i].ID == dayID {
			return &p.days[i]
		}
	}
	return nil
}

// ensureLoaded provisions the seven weekday rows on first access and fetches
// the plan. Callers hold p.mu.
func (p *Plan) ensureLoaded(ctx context.Context) error {
	if p.loaded {
		return nil
	}

	count, err := p.store.CountRoutineDays(ctx, p.userID)
	if err != nil {
		return fmt.Errorf("checking routine days: %w", err)
	}
	if count == 0 {
		days := make([]models.RoutineDay, 7)
		for weekday := range days {
			days[weekday] = models.RoutineDay{
				ID:      uuid.New(),
				UserID:  p.userID,
				Weekday: weekday,
				Name:    models.DefaultDayNames[weekday],
			}
		}
		if err := p.store.InsertRoutineDays(ctx, days); err != nil {
			return fmt.Errorf("provisioning routine days: %w", err)
		}
	}

	days, err := p.store.ListRoutineDays(ctx, p.userID)
	if err != nil {
		return fmt.Errorf("loading routine: %w", err)
	}
	p.days = days
	p.loaded = true
	return nil
}

// refetch re-runs the canonical read after a rejected mutation. Callers hold
// p.mu.
func (p *Plan) refetch(ctx context.Context) {
	days, err := p.store.ListRoutineDays(ctx, p.userID)
	if err != nil {
		p.log.Error("routine refetch failed", "error", err)
		p.loaded = false
		return
	}
	p.days = days
}
