package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shorebook/internal/database"
	"shorebook/internal/models"
	"shorebook/internal/service"
)

type draftRequest struct {
	CustomerRef   string   `json:"customer_ref"`
	ResourceIDs   []int64  `json:"resource_ids"`
	Dates         []string `json:"dates"`
	OccupantCount int64    `json:"occupant_count"`
	Overrides     []string `json:"overrides,omitempty"`
}

func (req draftRequest) toDraft() (*models.BookingDraft, error) {
	dates, err := parseDates(req.Dates)
	if err != nil {
		return nil, err
	}
	draft := &models.BookingDraft{
		CustomerRef:   strings.TrimSpace(req.CustomerRef),
		ResourceIDs:   req.ResourceIDs,
		Dates:         dates,
		OccupantCount: req.OccupantCount,
	}
	for _, o := range req.Overrides {
		draft.AddOverride(models.Override(strings.TrimSpace(o)))
	}
	return draft, nil
}

func (s *HTTPServer) handleListResources(w http.ResponseWriter, r *http.Request) {
	zones := make([]map[string]any, 0)
	for _, zoneID := range s.deps.Catalog.Zones() {
		zones = append(zones, map[string]any{
			"zone_id":   zoneID,
			"resources": s.deps.Catalog.Zone(zoneID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": zones})
}

func (s *HTTPServer) handleAvailabilityBulk(w http.ResponseWriter, r *http.Request) {
	type request struct {
		ResourceIDs []int64  `json:"resource_ids"`
		Dates       []string `json:"dates"`
	}

	var body request
	if r.Method == http.MethodGet {
		ids, err := splitIDs(r.URL.Query().Get("resource_ids"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		body.ResourceIDs = ids
		body.Dates = splitCSV(r.URL.Query().Get("dates"))
	} else if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dates, err := parseDates(body.Dates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.deps.Availability.CheckAvailability(r.Context(), body.ResourceIDs, dates)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse(report))
}

func availabilityResponse(report *models.AvailabilityReport) map[string]any {
	conflicts := make([]map[string]any, 0, len(report.Conflicts))
	for _, c := range report.Conflicts {
		conflicts = append(conflicts, map[string]any{
			"resource_id": c.ResourceID,
			"date":        models.DayKey(c.Date),
			"reason":      c.Reason,
		})
	}
	return map[string]any{
		"all_available": report.AllAvailable,
		"conflicts":     conflicts,
	}
}

func (s *HTTPServer) handleEvaluateDraft(w http.ResponseWriter, r *http.Request) {
	var body draftRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	draft, err := body.toDraft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.deps.Safeguards.Evaluate(r.Context(), draft)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	if outcome.Proceed {
		writeJSON(w, http.StatusOK, map[string]any{"proceed": true})
		return
	}

	if outcome.RouteToResolution {
		state, err := s.deps.Resolutions.Start(r.Context(), draft, outcome.Conflicts)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusConflict, map[string]any{
			"proceed": false,
			"session": state,
		})
		return
	}

	resp := map[string]any{
		"proceed": false,
		"block": map[string]any{
			"rule":     outcome.Block.Rule,
			"hard":     outcome.Block.Hard,
			"override": outcome.Block.Override,
			"dates":    outcome.Block.Dates,
		},
	}
	if outcome.ViewReservationID != 0 {
		resp["view_reservation_id"] = outcome.ViewReservationID
	}
	if outcome.Block.SelectionCapacity != 0 || outcome.Block.OccupantCount != 0 {
		resp["selection_capacity"] = outcome.Block.SelectionCapacity
		resp["occupant_count"] = outcome.Block.OccupantCount
	}
	if outcome.Block.GapCount != 0 {
		resp["gap_count"] = outcome.Block.GapCount
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func (s *HTTPServer) handleGetResolution(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Resolutions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleAssignResolution(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Date        string  `json:"date"`
		ResourceIDs []int64 `json:"resource_ids"`
	}
	var body request
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := models.ParseDay(strings.TrimSpace(body.Date)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	state, err := s.deps.Resolutions.Assign(r.Context(), r.PathValue("id"), strings.TrimSpace(body.Date), body.ResourceIDs)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleRetryResolution(w http.ResponseWriter, r *http.Request) {
	state, err := s.deps.Resolutions.Retry(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if state.Phase != models.PhaseCommitted {
		// Lost the race; session reopened with fresh conflicts.
		status = http.StatusConflict
	}
	writeJSON(w, status, state)
}

func (s *HTTPServer) handleAbandonResolution(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Resolutions.Abandon(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	var body draftRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	draft, err := body.toDraft()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The commit path re-runs the safeguards; overrides recorded on the
	// draft carry through, but hard blocks and unresolved conflicts refuse.
	outcome, err := s.deps.Safeguards.Evaluate(r.Context(), draft)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !outcome.Proceed {
		if outcome.RouteToResolution {
			state, err := s.deps.Resolutions.Start(r.Context(), draft, outcome.Conflicts)
			if err != nil {
				s.writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusConflict, map[string]any{"session": state})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": "draft blocked",
			"rule":  outcome.Block.Rule,
		})
		return
	}

	result, err := s.deps.Committer.Commit(r.Context(), draft.CustomerRef, draft.DefaultAssignment(), draft.OccupantCount)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !result.Success {
		// Raced between evaluation and commit.
		writeJSON(w, http.StatusConflict, availabilityResponse(&models.AvailabilityReport{Conflicts: result.Conflicts}))
		return
	}

	reservation, err := s.deps.Store.GetReservation(r.Context(), result.ReservationID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reservation)
}

func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	reservation, err := s.deps.Store.GetReservation(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *HTTPServer) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}
	version, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil || version < 1 {
		writeError(w, http.StatusBadRequest, "version query parameter is required")
		return
	}

	if err := s.deps.Committer.Cancel(r.Context(), id, version); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	type request struct {
		GuestRef  string `json:"guest_ref"`
		Name      string `json:"name"`
		Arrival   string `json:"arrival"`
		Departure string `json:"departure"`
	}
	var body request
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	arrival, err := models.ParseDay(strings.TrimSpace(body.Arrival))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid arrival date; expected YYYY-MM-DD")
		return
	}
	departure, err := models.ParseDay(strings.TrimSpace(body.Departure))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid departure date; expected YYYY-MM-DD")
		return
	}

	ref, err := s.deps.Directory.CreateFromExternalSource(r.Context(), body.GuestRef, body.Name, arrival, departure)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"guest_ref": ref})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	type request struct {
		CustomerType  string   `json:"customer_type"`
		ResourceIDs   []int64  `json:"resource_ids"`
		Dates         []string `json:"dates"`
		OccupantCount int64    `json:"occupant_count"`
	}
	var body request
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	dates, err := parseDates(body.Dates)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, currency, err := s.deps.Quoter.Quote(r.Context(), body.CustomerType, body.ResourceIDs, dates, body.OccupantCount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    total,
		"currency": currency,
	})
}

// writeServiceError maps domain errors onto HTTP status codes.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDraft), errors.Is(err, service.ErrDateNotInSession):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionClosed), errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnresolvedConflicts):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error().Err(err).Msg("unhandled service error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseDates(raw []string) (models.DateSet, error) {
	dates := make([]time.Time, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		d, err := models.ParseDay(s)
		if err != nil {
			return nil, fmt.Errorf("invalid date format: %s; expected YYYY-MM-DD", s)
		}
		dates = append(dates, d)
	}
	return models.NewDateSet(dates), nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func splitIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, p := range splitCSV(raw) {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid resource id: %s", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
