package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/strataworks/stratum/internal/httputil"
	"github.com/strataworks/stratum/internal/manifest"
	"github.com/strataworks/stratum/internal/monitor"
	"github.com/strataworks/stratum/internal/plandb"
	"github.com/strataworks/stratum/internal/scheduler"
	"github.com/strataworks/stratum/internal/settings"
	"github.com/strataworks/stratum/internal/units"
	"github.com/strataworks/stratum/internal/version"
)

// maxScheduleBody caps schedule request bodies. Manifests carry step
// metadata only, so real builds stay far below this.
const maxScheduleBody = 32 * 1024 * 1024 // 32MB

func (s *Server) showHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (s *Server) showSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	// Resolved values, not the raw pointer-field config, so clients see the
	// defaults the scheduler will actually use.
	httputil.WriteJSONOK(w, map[string]interface{}{
		"layer_ordering":        s.cfg.GetLayerOrdering(),
		"grouping_tolerance_mm": s.cfg.GetGroupingTolerance().MM(),
		"stacking_pitch_deg":    s.cfg.GetStackingPitch().Deg(),
		"stacking_yaw_deg":      s.cfg.GetStackingYaw().Deg(),
		"stacking_roll_deg":     s.cfg.GetStackingRoll().Deg(),
	})
}

// ScheduleRequest is the POST /api/schedule body: the parts to schedule plus
// optional settings overriding the server profile for this request only.
type ScheduleRequest struct {
	Manifest manifest.Manifest          `json:"manifest"`
	Settings *settings.SchedulingConfig `json:"settings,omitempty"`
	Source   string                     `json:"source,omitempty"`
}

// ScheduleResponse reports the finished schedule as flattened assignment
// rows, plus the run row under which it was (or would be) stored.
type ScheduleResponse struct {
	Run    plandb.ScheduleRun       `json:"run"`
	Layers []plandb.LayerAssignment `json:"layers"`
	Saved  bool                     `json:"saved"`
}

func (s *Server) scheduleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}

	var req ScheduleRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxScheduleBody)).Decode(&req); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid schedule request: %v", err))
		return
	}
	if req.Settings != nil {
		if err := req.Settings.Validate(); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid settings override: %v", err))
			return
		}
	}

	parts, err := req.Manifest.Materialize()
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid manifest: %v", err))
		return
	}

	cfg := s.cfg.Merge(req.Settings)
	opt := scheduler.NewOptimizer(scheduler.OptimizerConfig{Settings: cfg})
	layers := opt.PopulateSteps(parts)

	runID := plandb.NewRunID()
	run := plandb.NewScheduleRun(runID, cfg, len(parts), len(layers), req.Source)
	rows := plandb.FlattenSchedule(runID, parts, layers)

	saved := false
	if r.URL.Query().Get("save") == "1" {
		if s.db == nil {
			httputil.WriteJSONError(w, http.StatusServiceUnavailable, "run store not configured")
			return
		}
		if err := s.db.SaveRun(run, rows); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to save run: %v", err))
			return
		}
		saved = true
	}

	httputil.WriteJSONOK(w, ScheduleResponse{Run: run, Layers: rows, Saved: saved})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListRuns(limit)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []plandb.ScheduleRun{}
	}
	httputil.WriteJSONOK(w, runs)
}

// runSubtree routes /api/runs/{id}, /api/runs/{id}/chart and
// /api/runs/{id}/profile.png.
func (s *Server) runSubtree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	runID, view, _ := strings.Cut(rest, "/")
	if runID == "" {
		httputil.NotFound(w, "run id required")
		return
	}

	if r.Method == http.MethodDelete {
		if view != "" {
			httputil.MethodNotAllowed(w)
			return
		}
		if err := s.db.DeleteRun(runID); err != nil {
			if errors.Is(err, plandb.ErrRunNotFound) {
				httputil.NotFound(w, fmt.Sprintf("run %s not found", runID))
				return
			}
			httputil.InternalServerError(w, fmt.Sprintf("failed to delete run: %v", err))
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"deleted": runID})
		return
	}

	run, rows, err := s.db.GetRun(runID)
	if err != nil {
		if errors.Is(err, plandb.ErrRunNotFound) {
			httputil.NotFound(w, fmt.Sprintf("run %s not found", runID))
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to get run: %v", err))
		return
	}

	switch view {
	case "":
		// The store keeps distances in mm; convert for display on the way
		// out only.
		target := units.MM
		if u := r.URL.Query().Get("units"); u != "" {
			if !units.IsValid(u) {
				httputil.BadRequest(w, fmt.Sprintf("invalid 'units' parameter (valid: %s)", units.GetValidUnitsString()))
				return
			}
			target = u
		}
		for i := range rows {
			rows[i].DistanceMM = units.ConvertDistance(rows[i].DistanceMM, target)
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"run":    run,
			"layers": rows,
			"units":  target,
		})
	case "chart":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := monitor.RenderTimeline(w, run, rows); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		}
	case "profile.png":
		w.Header().Set("Content-Type", "image/png")
		if err := monitor.WriteHeightProfile(w, run, rows); err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to render profile: %v", err))
		}
	default:
		httputil.NotFound(w, fmt.Sprintf("unknown run view %q", view))
	}
}
