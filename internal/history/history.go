// Package history is the read-side projection over the session archive:
// personal records, period volume and stats, and per-exercise progress
// series. It derives everything from archived sessions and mutates nothing,
// except for the after-the-fact logging of a past workout.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/claude/gymtrack/internal/models"
	"github.com/google/uuid"
)

// Store is the archive side the aggregator reads from.
type Store interface {
	ListSessions(ctx context.Context, userID int, since time.Time) ([]models.PerformedSession, error)
	InsertPastSession(ctx context.Context, s models.PerformedSession) error
}

// NameSource resolves exercise names when logging a past workout.
type NameSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.ExerciseDefinition, error)
}

// PersonalRecord is the heaviest completed set ever logged for an exercise.
// When two sets share the max weight the earliest date wins, so a record
// keeps its original date when merely equalled later.
type PersonalRecord struct {
	ExerciseID   uuid.UUID `json:"exercise_id"`
	ExerciseName string    `json:"exercise_name"`
	Weight       float64   `json:"weight"`
	Reps         int       `json:"reps"`
	Date         time.Time `json:"date"`
}

// PeriodStats summarizes training over a period.
type PeriodStats struct {
	SessionCount      int     `json:"session_count"`
	CompletedSetCount int     `json:"completed_set_count"`
	Volume            float64 `json:"volume"`
}

// SeriesPoint is one session's contribution to an exercise progress chart,
// computed from completed sets only.
type SeriesPoint struct {
	Date      time.Time `json:"date"`
	MaxWeight float64   `json:"max_weight"`
	Volume    float64   `json:"volume"`
}

// Aggregator serves history views for one signed-in user.
type Aggregator struct {
	store  Store
	names  NameSource
	userID int
	log    *slog.Logger
}

// New creates an aggregator bound to a user.
func New(store Store, names NameSource, userID int, log *slog.Logger) *Aggregator {
	return &Aggregator{store: store, names: names, userID: userID, log: log}
}

// ListSessions returns archived sessions newest first. A zero since means
// the full archive.
func (a *Aggregator) ListSessions(ctx context.Context, since time.Time) ([]models.PerformedSession, error) {
	return a.store.ListSessions(ctx, a.userID, since)
}

// PersonalRecords returns the PR per exercise ever performed: the completed
// set with the maximum weight, weight zero excluded.
func (a *Aggregator) PersonalRecords(ctx context.Context) (map[uuid.UUID]PersonalRecord, error) {
	sessions, err := a.store.ListSessions(ctx, a.userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("loading archive for records: %w", err)
	}

	records := make(map[uuid.UUID]PersonalRecord)
	for _, s := range sessions {
		for _, e := range s.Exercises {
			for _, set := range e.Sets {
				if !set.Completed || set.Weight <= 0 {
					continue
				}
				cur, ok := records[e.ExerciseID]
				better := set.Weight > cur.Weight ||
					(set.Weight == cur.Weight && s.Date.Before(cur.Date))
				if !ok || better {
					records[e.ExerciseID] = PersonalRecord{
						ExerciseID:   e.ExerciseID,
						ExerciseName: e.ExerciseName,
						Weight:       set.Weight,
						Reps:         set.Reps,
						Date:         s.Date,
					}
				}
			}
		}
	}
	return records, nil
}

// PeriodVolume sums weight times reps over every completed set since the
// timestamp.
func (a *Aggregator) PeriodVolume(ctx context.Context, since time.Time) (float64, error) {
	stats, err := a.PeriodStats(ctx, since)
	if err != nil {
		return 0, err
	}
	return stats.Volume, nil
}

// PeriodStats counts sessions, completed sets, and volume since the
// timestamp.
func (a *Aggregator) PeriodStats(ctx context.Context, since time.Time) (PeriodStats, error) {
	sessions, err := a.store.ListSessions(ctx, a.userID, since)
	if err != nil {
		return PeriodStats{}, fmt.Errorf("loading archive for stats: %w", err)
	}

	var stats PeriodStats
	stats.SessionCount = len(sessions)
	for _, s := range sessions {
		for _, e := range s.Exercises {
			for _, set := range e.Sets {
				if !set.Completed {
					continue
				}
				stats.CompletedSetCount++
				stats.Volume += set.Weight * float64(set.Reps)
			}
		}
	}
	return stats, nil
}

// ExerciseSeries returns one chart point per session that included the
// exercise, oldest first. Sessions whose completed sets carry no weight or
// reps contribute nothing and are dropped.
func (a *Aggregator) ExerciseSeries(ctx context.Context, exerciseID uuid.UUID) ([]SeriesPoint, error) {
	sessions, err := a.store.ListSessions(ctx, a.userID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("loading archive for series: %w", err)
	}

	var points []SeriesPoint
	for _, s := range sessions {
		var p SeriesPoint
		found := false
		for _, e := range s.Exercises {
			if e.ExerciseID != exerciseID {
				continue
			}
			found = true
			for _, set := range e.Sets {
				if !set.Completed {
					continue
				}
				if set.Weight > p.MaxWeight {
					p.MaxWeight = set.Weight
				}
				p.Volume += set.Weight * float64(set.Reps)
			}
		}
		if found && (p.MaxWeight > 0 || p.Volume > 0) {
			p.Date = s.Date
			points = append(points, p)
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// PastExercise is one exercise of a workout logged after the fact.
type PastExercise struct {
	ExerciseID uuid.UUID           `json:"exercise_id"`
	Notes      string              `json:"notes,omitempty"`
	Sets       []models.SessionSet `json:"sets"`
}

// RecordPastSession archives a workout that happened off-app. Names are
// snapshotted and the meaningful-set filter applies, exactly as for a live
// session.
func (a *Aggregator) RecordPastSession(ctx context.Context, dayID uuid.UUID, date time.Time, durationMin int, notes string, exercises []PastExercise) error {
	s := models.PerformedSession{
		ID:              uuid.New(),
		UserID:          a.userID,
		SourceDayID:     dayID,
		Date:            date,
		DurationMinutes: durationMin,
		GeneralNotes:    notes,
	}

	for _, pe := range exercises {
		name := "Unknown Exercise"
		if def, err := a.names.GetByID(ctx, pe.ExerciseID); err == nil {
			name = def.Name
		}
		ex := models.PerformedExercise{
			ExerciseID:   pe.ExerciseID,
			ExerciseName: name,
			Notes:        pe.Notes,
		}
		for _, set := range pe.Sets {
			if !set.Meaningful() {
				continue
			}
			ex.Sets = append(ex.Sets, models.PerformedSet{
				SetNumber: set.SetNumber,
				Weight:    set.Weight,
				Reps:      set.Reps,
				RIR:       set.RIR,
				Completed: set.Completed,
			})
		}
		s.Exercises = append(s.Exercises, ex)
	}

	if err := a.store.InsertPastSession(ctx, s); err != nil {
		return fmt.Errorf("recording past session: %w", err)
	}
	a.log.Info("past session recorded", "session", s.ID, "date", date, "exercises", len(s.Exercises))
	return nil
}
