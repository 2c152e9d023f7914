// Package httpapi exposes the building-access operations over JSON/HTTP:
// the manager surface (schedule entries, passcode lifecycle, status
// transitions, directory upkeep), the door-side code check, and the kiosk
// directory feed.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/javanbakhti/smartBuild-sub000/internal/access/credential"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/entry"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/service"
	"github.com/javanbakhti/smartBuild-sub000/internal/access/store"
)

type Dependencies struct {
	Logger     *zap.Logger
	Addr       string
	Entries    *service.EntryService
	Directory  *service.DirectoryService
	BuildingID string
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	validate   *validator.Validate
	entries    *service.EntryService
	directory  *service.DirectoryService
	buildingID string
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:     d.Logger,
		mux:        mux,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		entries:    d.Entries,
		directory:  d.Directory,
		buildingID: d.BuildingID,
	}

	mux.HandleFunc("POST /v1/entries", s.handleScheduleEntry)
	mux.HandleFunc("GET /v1/units/{unitID}/entries", s.handleListEntries)
	mux.HandleFunc("POST /v1/entries/{id}/passcode", s.handleRegeneratePasscode)
	mux.HandleFunc("POST /v1/entries/{id}/depart", s.transitionHandler(entry.EventDepart))
	mux.HandleFunc("POST /v1/entries/{id}/deny", s.transitionHandler(entry.EventDeny))
	mux.HandleFunc("POST /v1/entries/{id}/archive", s.transitionHandler(entry.EventArchive))
	mux.HandleFunc("POST /v1/entries/{id}/unarchive", s.transitionHandler(entry.EventUnarchive))
	mux.HandleFunc("POST /v1/access/check", s.handleAccessCheck)
	mux.HandleFunc("GET /v1/directory", s.handleListDirectory)
	mux.HandleFunc("PUT /v1/directory/{id}", s.handleUpsertDirectory)

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// decodeValid decodes the JSON body into v and runs struct validation.
// A false return means the response has already been written.
func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

// ── Entries ──────────────────────────────────────────────────────────────────

func (s *Server) handleScheduleEntry(w http.ResponseWriter, r *http.Request) {
	var req scheduleEntryRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	params := service.ScheduleParams{
		UnitID:     req.UnitID,
		BuildingID: req.BuildingID,
		Kind:       entry.Kind(req.Kind),
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Comment:    req.Comment,
		Grant:      grantFromRequest(req.Access, req.Code),
		Policy:     policyFromRequest(req.Policy, req.Limit),
		Expiry:     req.Expiry.toDomain(),
	}
	if req.ExpectedAt != nil {
		params.ExpectedAt = *req.ExpectedAt
	}
	if params.BuildingID == "" {
		params.BuildingID = s.buildingID
	}

	e, err := s.entries.ScheduleEntry(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, "schedule", err)
		return
	}

	writeJSON(w, http.StatusCreated, entryToResponse(e))
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.entries.ListEntries(r.Context(), r.PathValue("unitID"))
	if err != nil {
		s.writeServiceError(w, "list entries", err)
		return
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRegeneratePasscode(w http.ResponseWriter, r *http.Request) {
	var req regeneratePasscodeRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	e, err := s.entries.RegeneratePasscode(r.Context(), r.PathValue("id"),
		req.Expiry.toDomain(), policyFromRequest(req.Policy, req.Limit))
	if err != nil {
		s.writeServiceError(w, "regenerate passcode", err)
		return
	}

	writeJSON(w, http.StatusOK, entryToResponse(e))
}

func (s *Server) transitionHandler(ev entry.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.entries.Transition(r.Context(), r.PathValue("id"), ev)
		if err != nil {
			s.writeServiceError(w, string(ev), err)
			return
		}
		writeJSON(w, http.StatusOK, entryToResponse(e))
	}
}

// ── Access check ─────────────────────────────────────────────────────────────

func (s *Server) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	var req accessCheckRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	dec, err := s.entries.CheckAccess(r.Context(), req.UnitID, req.Code)
	if err != nil {
		s.writeServiceError(w, "access check", err)
		return
	}

	// Denials are 200s: the door keypad needs the reason, not an error.
	writeJSON(w, http.StatusOK, accessCheckResponse{
		Granted: dec.Granted,
		Reason:  dec.Reason,
		Name:    dec.Name,
	})
}

// ── Directory ────────────────────────────────────────────────────────────────

func (s *Server) handleListDirectory(w http.ResponseWriter, r *http.Request) {
	buildingID := r.URL.Query().Get("building_id")
	if buildingID == "" {
		buildingID = s.buildingID
	}

	visible, err := s.directory.ListVisible(r.Context(), buildingID, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, "list directory", err)
		return
	}

	writeJSON(w, http.StatusOK, directoryToItems(visible))
}

func (s *Server) handleUpsertDirectory(w http.ResponseWriter, r *http.Request) {
	var req upsertDirectoryRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if err := s.directory.Upsert(r.Context(), req.toDomain(r.PathValue("id"))); err != nil {
		s.writeServiceError(w, "upsert directory", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ── Error mapping ────────────────────────────────────────────────────────────

func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "no such entry")
	case errors.Is(err, service.ErrUnitRequired):
		writeError(w, http.StatusBadRequest, "unit_required", err.Error())
	case errors.Is(err, credential.ErrInvalidFormat):
		writeError(w, http.StatusBadRequest, "invalid_passcode", err.Error())
	case errors.Is(err, credential.ErrDuplicate):
		writeError(w, http.StatusConflict, "passcode_in_use", err.Error())
	case errors.Is(err, credential.ErrExpiryBeforeBasis):
		writeError(w, http.StatusBadRequest, "invalid_expiry", err.Error())
	case errors.Is(err, entry.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	default:
		s.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}
