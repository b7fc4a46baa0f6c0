package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/sceneindex/markerd/internal/engine"
	"github.com/sceneindex/markerd/internal/logging"
	"github.com/sceneindex/markerd/internal/middleware"
	"github.com/sceneindex/markerd/internal/models"
)

// Handler wires the 17 wire operations of spec §6 to an engine.Service. It
// carries no business logic beyond parameter parsing and error translation;
// every decision lives in internal/engine.
type Handler struct {
	svc *engine.Service
}

// NewHandler builds a Handler around a running engine.Service.
func NewHandler(svc *engine.Service) *Handler {
	return &Handler{svc: svc}
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(&models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now(), RequestID: middleware.GetRequestID(r.Context())},
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, werr := w.Write(body); werr != nil {
		logging.Logger().Error().Err(werr).Msg("failed to write response body")
	}
}

// respondError writes an error envelope, logging server-side (5xx) errors.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Str("code", code).Msg(message)
	}

	body, err := json.Marshal(&models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now(), RequestID: middleware.GetRequestID(r.Context())},
		Error:    &models.APIError{Code: code, Message: message},
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondParamError translates a dispatcher-level parameter error (missing
// or malformed) into a 400 BadRequest envelope.
func respondParamError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, http.StatusBadRequest, "bad_request", err.Error())
}

// respondEngineError translates a models.ServiceError (or any unclassified
// error) into its HTTP status and code, per spec §7's taxonomy.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	status := httpStatus(kind)
	respondError(w, r, status, string(kind), err.Error())
}

func httpStatus(kind models.ErrKind) int {
	switch kind {
	case models.ErrBadRequest:
		return http.StatusBadRequest
	case models.ErrBadTarget:
		return http.StatusBadRequest
	case models.ErrNotFound:
		return http.StatusNotFound
	case models.ErrOverlap:
		return http.StatusConflict
	case models.ErrConflict:
		return http.StatusConflict
	case models.ErrOverflow:
		return http.StatusUnprocessableEntity
	case models.ErrFeatureDisabled:
		return http.StatusForbidden
	case models.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Query handles the `query` operation.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	p, err := parseQueryParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.MarkersForParents(r.Context(), p.Keys)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// Add handles the `add` operation.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	p, err := parseAddParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	m, err := h.svc.Add(r.Context(), p.ParentID, p.Start, p.End, p.Type, p.Final)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, m)
}

// Edit handles the `edit` operation.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	p, err := parseEditParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	m, err := h.svc.Edit(r.Context(), p.MarkerID, p.Start, p.End, p.Type, p.Final)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

// Delete handles the `delete` operation.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := parseDeleteParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	m, err := h.svc.Delete(r.Context(), p.MarkerID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

// Shift handles the `shift` operation.
func (h *Handler) Shift(w http.ResponseWriter, r *http.Request) {
	p, err := parseShiftParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	res, err := h.svc.Shift(r.Context(), p.RootID, p.StartShift, p.EndShift, p.Force, p.Ignored)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// CheckShift handles the `check_shift` operation.
func (h *Handler) CheckShift(w http.ResponseWriter, r *http.Request) {
	p, err := parseCheckShiftParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	res, err := h.svc.CheckShift(r.Context(), p.RootID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// GetSections handles the `get_sections` operation.
func (h *Handler) GetSections(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Libraries(r.Context())
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetSection handles the `get_section` operation.
func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	p, err := parseGetSectionParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.Items(r.Context(), p.SectionID, p.Filter)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetSeasons handles the `get_seasons` operation.
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	p, err := parseIDParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.Seasons(r.Context(), p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetEpisodes handles the `get_episodes` operation.
func (h *Handler) GetEpisodes(w http.ResponseWriter, r *http.Request) {
	p, err := parseIDParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.Episodes(r.Context(), p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetStats handles the `get_stats` operation.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	p, err := parseIDParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.SectionStats(r.Context(), p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// PurgeCheck handles the `purge_check` operation.
func (h *Handler) PurgeCheck(w http.ResponseWriter, r *http.Request) {
	p, err := parseIDParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.PurgeCheck(r.Context(), p.ID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// AllPurges handles the `all_purges` operation.
func (h *Handler) AllPurges(w http.ResponseWriter, r *http.Request) {
	p, err := parseAllPurgesParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	out, err := h.svc.PurgesForSection(r.Context(), p.SectionID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// Restore handles the `restore` operation.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	p, err := parsePurgeMarkerParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	m, err := h.svc.Restore(r.Context(), p.MarkerID, p.SectionID)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

// IgnorePurge handles the `ignore_purge` operation.
func (h *Handler) IgnorePurge(w http.ResponseWriter, r *http.Request) {
	p, err := parsePurgeMarkerParams(r)
	if err != nil {
		respondParamError(w, r, err)
		return
	}
	if err := h.svc.Ignore(r.Context(), p.MarkerID, p.SectionID); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// Suspend handles the `suspend` operation.
func (h *Handler) Suspend(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Suspend(); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// Resume handles the `resume` operation.
func (h *Handler) Resume(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Resume(); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// NotFound is the catch-all for unrecognized operation names (spec §4.H:
// "Unknown operation name → NotFound").
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondEngineError(w, r, models.NewError(models.ErrNotFound, "unknown operation %s", r.URL.Path))
}
