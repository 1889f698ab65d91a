package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// BackupDocument is the bulk export format: the full catalog, plan and
// history under three named top-level sections. The section names are the
// round-trip contract; everything else about the document may evolve.
type BackupDocument struct {
	Exercises  []ExerciseDefinition `json:"exercises"`
	Routine    []RoutineDay         `json:"routine"`
	History    []PerformedSession   `json:"history"`
	ExportDate time.Time            `json:"export_date"`
}

// ParseBackup decodes and validates a backup document. All three sections
// must be present (empty is fine, absent is not) before an import is allowed
// to overwrite anything.
func ParseBackup(data []byte) (*BackupDocument, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing backup document: %w", err)
	}
	for _, section := range []string{"exercises", "routine", "history"} {
		if _, ok := probe[section]; !ok {
			return nil, fmt.Errorf("backup document missing %q section", section)
		}
	}

	var doc BackupDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing backup document: %w", err)
	}
	return &doc, nil
}
