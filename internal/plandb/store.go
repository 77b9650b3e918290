package plandb

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/strataworks/stratum/internal/build"
	"github.com/strataworks/stratum/internal/settings"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("schedule run not found")

// ScheduleRun is one persisted scheduling invocation: the settings it ran
// with and the shape of its result.
type ScheduleRun struct {
	RunID       string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	Ordering    string    `json:"ordering"`
	ToleranceMM float64   `json:"tolerance_mm"`
	PitchDeg    float64   `json:"pitch_deg"`
	YawDeg      float64   `json:"yaw_deg"`
	RollDeg     float64   `json:"roll_deg"`
	PartCount   int       `json:"part_count"`
	LayerCount  int       `json:"layer_count"`
	Source      string    `json:"source,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// LayerAssignment is one part's contribution to one global layer. DistanceMM
// is the layer-center offset along the step's own normal.
type LayerAssignment struct {
	RunID      string  `json:"-"`
	LayerIndex int     `json:"layer_index"`
	PartID     string  `json:"part_id"`
	PartName   string  `json:"part_name"`
	StepIndex  int     `json:"step_index"`
	DistanceMM float64 `json:"distance_mm"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string { return uuid.NewString() }

// NewScheduleRun builds the run row for a finished schedule.
func NewScheduleRun(runID string, cfg *settings.SchedulingConfig, partCount, layerCount int, source string) ScheduleRun {
	return ScheduleRun{
		RunID:       runID,
		CreatedAt:   time.Now(),
		Ordering:    string(cfg.GetLayerOrdering()),
		ToleranceMM: cfg.GetGroupingTolerance().MM(),
		PitchDeg:    cfg.GetStackingPitch().Deg(),
		YawDeg:      cfg.GetStackingYaw().Deg(),
		RollDeg:     cfg.GetStackingRoll().Deg(),
		PartCount:   partCount,
		LayerCount:  layerCount,
		Source:      source,
	}
}

// FlattenSchedule turns a schedule into assignment rows, sorted by layer then
// part id so output is stable.
func FlattenSchedule(runID string, parts []*build.Part, layers []*build.GlobalLayer) []LayerAssignment {
	indexOf := make(map[*build.StepPair]int)
	nameOf := make(map[build.PartID]string, len(parts))
	for _, p := range parts {
		nameOf[p.ID()] = p.Name()
		for i := 0; i < p.CountStepPairs(); i++ {
			indexOf[p.StepPair(i)] = i
		}
	}

	var rows []LayerAssignment
	for _, layer := range layers {
		for id, sp := range layer.StepPairs() {
			step := sp.Printing
			center := step.SlicingPlane().ShiftAlongNormal(step.LayerHeight() / 2)
			rows = append(rows, LayerAssignment{
				RunID:      runID,
				LayerIndex: layer.Index(),
				PartID:     string(id),
				PartName:   nameOf[id],
				StepIndex:  indexOf[sp],
				DistanceMM: center.Offset(),
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LayerIndex != rows[j].LayerIndex {
			return rows[i].LayerIndex < rows[j].LayerIndex
		}
		return rows[i].PartID < rows[j].PartID
	})
	return rows
}

// SaveRun stores a run and its assignments. Saving the same run id again
// replaces both the run row and its assignments.
func (db *DB) SaveRun(run ScheduleRun, rows []LayerAssignment) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO schedule_runs (
			run_id, created_at, ordering, tolerance_mm,
			pitch_deg, yaw_deg, roll_deg,
			part_count, layer_count, source, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			created_at = excluded.created_at,
			ordering = excluded.ordering,
			tolerance_mm = excluded.tolerance_mm,
			pitch_deg = excluded.pitch_deg,
			yaw_deg = excluded.yaw_deg,
			roll_deg = excluded.roll_deg,
			part_count = excluded.part_count,
			layer_count = excluded.layer_count,
			source = excluded.source,
			notes = excluded.notes`,
		run.RunID, run.CreatedAt.Unix(), run.Ordering, run.ToleranceMM,
		run.PitchDeg, run.YawDeg, run.RollDeg,
		run.PartCount, run.LayerCount, run.Source, run.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM schedule_layers WHERE run_id = ?`, run.RunID); err != nil {
		return fmt.Errorf("failed to clear old assignments: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO schedule_layers (
			run_id, layer_index, part_id, part_name, step_index, distance_mm
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare assignment insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(
			run.RunID, row.LayerIndex, row.PartID, row.PartName,
			row.StepIndex, row.DistanceMM,
		); err != nil {
			return fmt.Errorf("failed to save assignment (layer %d, part %s): %w",
				row.LayerIndex, row.PartID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun returns the run row and its assignments ordered by layer then part.
func (db *DB) GetRun(runID string) (*ScheduleRun, []LayerAssignment, error) {
	var run ScheduleRun
	var createdAtUnix int64

	err := db.QueryRow(`
		SELECT run_id, created_at, ordering, tolerance_mm,
			pitch_deg, yaw_deg, roll_deg,
			part_count, layer_count, source, notes
		FROM schedule_runs
		WHERE run_id = ?`, runID).Scan(
		&run.RunID, &createdAtUnix, &run.Ordering, &run.ToleranceMM,
		&run.PitchDeg, &run.YawDeg, &run.RollDeg,
		&run.PartCount, &run.LayerCount, &run.Source, &run.Notes,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrRunNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.CreatedAt = time.Unix(createdAtUnix, 0)

	rows, err := db.Query(`
		SELECT layer_index, part_id, part_name, step_index, distance_mm
		FROM schedule_layers
		WHERE run_id = ?
		ORDER BY layer_index, part_id`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	var assignments []LayerAssignment
	for rows.Next() {
		row := LayerAssignment{RunID: runID}
		if err := rows.Scan(&row.LayerIndex, &row.PartID, &row.PartName,
			&row.StepIndex, &row.DistanceMM); err != nil {
			return nil, nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return &run, assignments, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]ScheduleRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT run_id, created_at, ordering, tolerance_mm,
			pitch_deg, yaw_deg, roll_deg,
			part_count, layer_count, source, notes
		FROM schedule_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []ScheduleRun
	for rows.Next() {
		var run ScheduleRun
		var createdAtUnix int64
		if err := rows.Scan(
			&run.RunID, &createdAtUnix, &run.Ordering, &run.ToleranceMM,
			&run.PitchDeg, &run.YawDeg, &run.RollDeg,
			&run.PartCount, &run.LayerCount, &run.Source, &run.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAtUnix, 0)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// DeleteRun removes a run and its assignments.
func (db *DB) DeleteRun(runID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM schedule_layers WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete assignments: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM schedule_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}

	return tx.Commit()
}
