/*
handlers.go - HTTP API handlers for the fund ledger

PURPOSE:
  Exposes the ledger service via REST API and the xlsx export. Handles
  HTTP request/response and JSON serialization, and delegates validation
  and persistence to ledger.Service.

ENDPOINTS:
  Entries:
    GET    /api/entries            List rows + summary (?start&end&q&order)
    POST   /api/entries            Create row
    GET    /api/entries/{id}       Get row
    PUT    /api/entries/{id}       Partial update
    DELETE /api/entries/{id}       Delete row

  Settings:
    GET    /api/settings/carry     Carry-forward setting (defaulted)
    PUT    /api/settings/carry     Upsert carry-forward setting

  Export:
    GET    /ledger.xlsx            Workbook for the same filter as the list

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: Validation, persistence, change notification
  - Renderer: Grid layout, constructed once at startup
  - Encoder: excelize writer

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors ({error, reason, field}), malformed JSON
  - 404: Unknown transaction ID
  - 500: Internal errors ({error, details})

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/fund-ledger/ledger"
	"github.com/warp/fund-ledger/workbook"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *ledger.Service
	Renderer *workbook.Renderer
	Encoder  *workbook.Encoder

	// FilePrefix names exported files: <prefix>_<YYYY-MM-DD>.xlsx.
	FilePrefix string

	// Now stamps export filenames; replaceable in tests.
	Now func() time.Time

	log logrus.FieldLogger
}

// NewHandler creates a new handler. An empty filePrefix uses the
// renderer locale's default.
func NewHandler(svc *ledger.Service, renderer *workbook.Renderer, encoder *workbook.Encoder, filePrefix string, log logrus.FieldLogger) *Handler {
	if filePrefix == "" {
		filePrefix = renderer.Locale().FilePrefix
	}
	return &Handler{
		Service:    svc,
		Renderer:   renderer,
		Encoder:    encoder,
		FilePrefix: filePrefix,
		Now:        time.Now,
		log:        log.WithField("component", "api"),
	}
}

// =============================================================================
// ENTRY HANDLERS
// =============================================================================

// ListEntries returns the filtered rows with running balances and summary.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Report(r.Context(), queryFrom(r))
	if err != nil {
		h.writeServiceError(w, "Failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Filter: FilterDTO{
			Start: report.Query.Start,
			End:   report.Query.End,
			Q:     report.Query.Q,
			Order: string(report.Query.Order),
		},
		Rows:    toLedgerRows(report.Rows, report.Summary.Detail.PrevCarry),
		Summary: toSummaryDTO(report.Summary),
		Carry:   toCarryDTO(report.Carry),
	})
}

// CreateEntry creates a new row.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Service.Create(r.Context(), ledger.Draft{
		Date:        req.Date,
		Description: req.Description,
		Income:      req.Income,
		Expense:     req.Expense,
		Tag:         req.Tag,
		Note:        req.Note,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to create entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// GetEntry returns one row.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// UpdateEntry applies a partial update.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req UpdateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	tx, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), ledger.Changes{
		Date:        req.Date,
		Description: req.Description,
		Income:      req.Income,
		Expense:     req.Expense,
		Tag:         req.Tag,
		Note:        req.Note,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to update entry", err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// DeleteEntry removes a row.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "Failed to delete entry", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// =============================================================================
// CARRY HANDLERS
// =============================================================================

// GetCarry returns the carry setting, defaulted when never saved.
func (h *Handler) GetCarry(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Carry(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to load carry setting", err)
		return
	}
	writeJSON(w, http.StatusOK, toCarryDTO(c))
}

// UpdateCarry upserts the carry setting.
func (h *Handler) UpdateCarry(w http.ResponseWriter, r *http.Request) {
	var req CarryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	c, err := h.Service.UpdateCarry(r.Context(), req.PrevYear, req.PrevCarry)
	if err != nil {
		h.writeServiceError(w, "Failed to save carry setting", err)
		return
	}
	writeJSON(w, http.StatusOK, toCarryDTO(c))
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportWorkbook renders the filtered ledger as an xlsx attachment.
func (h *Handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.Report(r.Context(), queryFrom(r))
	if err != nil {
		h.writeServiceError(w, "Failed to load ledger", err)
		return
	}

	grid := h.Renderer.Render(report.Summary, report.Rows, ledger.SegmentRows(report.Rows))

	var buf bytes.Buffer
	if err := h.Encoder.Encode(&buf, grid); err != nil {
		h.log.WithError(err).Error("workbook encoding failed")
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	filename := ExportFilename(h.FilePrefix, h.Now())
	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.WithError(err).Warn("workbook download interrupted")
		return
	}

	h.log.WithFields(logrus.Fields{"rows": len(report.Rows), "file": filename}).Info("workbook exported")
}

// ExportFilename returns <prefix>_<YYYY-MM-DD>.xlsx for the given day.
func ExportFilename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, at.Format("2006-01-02"))
}

// =============================================================================
// MISC
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Root sends browsers to the entry list.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/api/entries", http.StatusFound)
}

// =============================================================================
// HELPERS
// =============================================================================

func queryFrom(r *http.Request) ledger.Query {
	v := r.URL.Query()
	return ledger.Query{
		Start: v.Get("start"),
		End:   v.Get("end"),
		Q:     v.Get("q"),
		Order: ledger.Order(v.Get("order")),
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	return dec.Decode(v)
}

// writeServiceError maps ledger errors to responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  verr.Message,
			Reason: verr.Reason,
			Field:  verr.Field,
		})
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Entry not found", err)
	default:
		h.log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
