package models

import (
	"time"

	"github.com/google/uuid"
)

// MuscleGroup classifies an exercise by primary muscle.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleBack      MuscleGroup = "back"
	MuscleLegs      MuscleGroup = "legs"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleArms      MuscleGroup = "arms"
	MuscleCore      MuscleGroup = "core"
)

// Valid reports whether g is one of the known muscle groups.
func (g MuscleGroup) Valid() bool {
	switch g {
	case MuscleChest, MuscleBack, MuscleLegs, MuscleShoulders, MuscleArms, MuscleCore:
		return true
	}
	return false
}

// Equipment classifies the implement an exercise is performed with.
type Equipment string

const (
	EquipBarbell    Equipment = "barbell"
	EquipDumbbell   Equipment = "dumbbell"
	EquipMachine    Equipment = "machine"
	EquipCable      Equipment = "cable"
	EquipBodyweight Equipment = "bodyweight"
)

// Valid reports whether e is one of the known equipment kinds.
func (e Equipment) Valid() bool {
	switch e {
	case EquipBarbell, EquipDumbbell, EquipMachine, EquipCable, EquipBodyweight:
		return true
	}
	return false
}

// ExerciseDefinition is a catalog entry. Global exercises are pre-seeded and
// shared; non-global ones belong to a single user and are the only mutable
// kind. Sessions snapshot the name at save time, so renaming or deleting a
// definition never rewrites history.
type ExerciseDefinition struct {
	ID          uuid.UUID   `json:"id"`
	UserID      int         `json:"user_id"`
	Name        string      `json:"name"`
	MuscleGroup MuscleGroup `json:"muscle_group"`
	Equipment   Equipment   `json:"equipment"`
	Subcategory string      `json:"subcategory,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	IsGlobal    bool        `json:"is_global"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ExerciseDraft carries the user-supplied fields for creating a custom
// exercise. ID, ownership and the global flag are assigned by the catalog.
type ExerciseDraft struct {
	Name        string      `json:"name"`
	MuscleGroup MuscleGroup `json:"muscle_group"`
	Equipment   Equipment   `json:"equipment"`
	Subcategory string      `json:"subcategory,omitempty"`
	Notes       string      `json:"notes,omitempty"`
}

// ExercisePatch enumerates the fields an update may change. Nil means
// "leave unchanged".
type ExercisePatch struct {
	Name        *string      `json:"name,omitempty"`
	MuscleGroup *MuscleGroup `json:"muscle_group,omitempty"`
	Equipment   *Equipment   `json:"equipment,omitempty"`
	Subcategory *string      `json:"subcategory,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
}

// Apply merges the patch into def.
func (p ExercisePatch) Apply(def *ExerciseDefinition) {
	if p.Name != nil {
		def.Name = *p.Name
	}
	if p.MuscleGroup != nil {
		def.MuscleGroup = *p.MuscleGroup
	}
	if p.Equipment != nil {
		def.Equipment = *p.Equipment
	}
	if p.Subcategory != nil {
		def.Subcategory = *p.Subcategory
	}
	if p.Notes != nil {
		def.Notes = *p.Notes
	}
}
