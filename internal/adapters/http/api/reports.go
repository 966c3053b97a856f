package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/forceplate/internal/adapters/render"
	"github.com/okian/forceplate/internal/adapters/repository"
	"github.com/okian/forceplate/internal/adapters/source"
)

// Multipart field names of POST /reports.
const (
	FieldCMJ    = "cmj"
	FieldIMTP   = "imtp"
	FieldRoster = "roster"
	FieldTeam   = "team"
	FieldPhase  = "phase"
	FieldNext   = "next_phase"
)

// ReportsHandler handles report creation and retrieval.
type ReportsHandler struct {
	deps           Dependencies
	maxUploadBytes int64
	maxLimit       int
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies, opts ...Option) *ReportsHandler {
	h := &ReportsHandler{
		deps:           deps,
		maxUploadBytes: DefaultMaxUploadBytes,
		maxLimit:       DefaultMaxListLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleCreateReport handles POST /reports multipart uploads.
func (h *ReportsHandler) HandleCreateReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_report"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var files source.Files
	for _, f := range []struct {
		field string
		dst   **source.File
	}{{FieldCMJ, &files.CMJ}, {FieldIMTP, &files.IMTP}, {FieldRoster, &files.Roster}} {
		file, err := formFile(r, f.field)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		*f.dst = file
	}
	if files.CMJ == nil && files.IMTP == nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, fmt.Errorf("need a %q or %q file", FieldCMJ, FieldIMTP)))
		return
	}

	header := repository.Header{
		Team:      r.FormValue(FieldTeam),
		Phase:     r.FormValue(FieldPhase),
		NextPhase: r.FormValue(FieldNext),
	}
	rep, err := h.deps.CreateReport(r.Context(), header, files)
	if err != nil {
		if isBusy(err) {
			w.Header().Set("Retry-After", retryAfterSeconds)
			writeError(w, http.StatusServiceUnavailable, "busy", WrapKind(op, ErrBackpressure, err))
			return
		}
		if isBadInput(err) {
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/reports/"+rep.ID)
	writeJSON(w, http.StatusCreated, rep)
}

// formFile returns the uploaded file in field, or nil when absent.
func formFile(r *http.Request, field string) (*source.File, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, f); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &source.File{Name: hdr.Filename, Data: buf.Bytes()}, nil
}

// HandleListReports handles GET /reports?limit=N requests.
func (h *ReportsHandler) HandleListReports(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reports"
	n := DefaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", s)))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit %d exceeds %d", v, h.maxLimit)))
			return
		}
		n = v
	}
	list, err := h.deps.ListReports(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetReport handles GET /reports/{id} requests.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	rep, err := h.deps.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleGetReportText handles GET /reports/{id}/text requests.
func (h *ReportsHandler) HandleGetReportText(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report_text"
	rep, err := h.deps.GetReport(r.Context(), r.PathValue("id"))
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	if err := render.WriteText(&buf, rep.Result, render.Meta{
		Team:        rep.Team,
		Phase:       rep.Phase,
		NextPhase:   rep.NextPhase,
		GeneratedAt: rep.CreatedAt,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
		return
	}
	w.Header().Set("Content-Type", render.Text.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
