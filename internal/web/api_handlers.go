package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/client"
	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const generatePath = client.GeneratePath

// renderFailedMessage is the only detail a client sees when a request fails.
const renderFailedMessage = "Error al generar PDF"

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleGeneratePDF renders the posted visit record and returns it as a
// PDF attachment. Every failure answers 500 with the same generic body;
// the cause is only logged.
func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(slog.String("request_id", middleware.GetReqID(r.Context())))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Warn("request body too large", "limit", maxErr.Limit)
		} else {
			logger.Warn("reading request body", "error", err)
		}
		apiError(w, renderFailedMessage, http.StatusInternalServerError)
		return
	}

	var rec visit.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		logger.Warn("invalid JSON body", "error", err)
		apiError(w, renderFailedMessage, http.StatusInternalServerError)
		return
	}

	if err := rec.Validate(); err != nil {
		var verr *visit.ValidationError
		if errors.As(err, &verr) {
			logger.Warn("invalid visit record", "project", rec.ProjectCode, "problems", verr.Problems)
		} else {
			logger.Warn("invalid visit record", "project", rec.ProjectCode, "error", err)
		}
		apiError(w, renderFailedMessage, http.StatusInternalServerError)
		return
	}

	rep, err := s.renderer.Render(r.Context(), &rec)
	if err != nil {
		logger.Error("rendering report", "project", rec.ProjectCode, "error", err)
		apiError(w, renderFailedMessage, http.StatusInternalServerError)
		return
	}
	if len(rep.Failed) > 0 {
		logger.Warn("report rendered with unreadable photos",
			"report_id", rep.ID,
			"pages", rep.Failed,
		)
	}

	logger.Info("report generated",
		"report_id", rep.ID,
		"project", rec.ProjectCode,
		"pages", rep.Pages,
		"bytes", len(rep.PDF),
	)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", contentDisposition(rep.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(rep.PDF)))
	w.Header().Set("X-Report-ID", rep.ID)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(rep.PDF); err != nil {
		logger.Warn("writing report response", "report_id", rep.ID, "error", err)
	}
}

// contentDisposition builds an attachment header. Non-ASCII names use the
// RFC 2231 extended form.
func contentDisposition(filename string) string {
	for _, r := range filename {
		if r > unicode.MaxASCII {
			return mime.FormatMediaType("attachment", map[string]string{"filename": filename})
		}
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
