package http

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ggonsajang/comcard/internal/artifact"
	"github.com/ggonsajang/comcard/internal/export"
	"github.com/ggonsajang/comcard/internal/handoff"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/mail"
	"github.com/ggonsajang/comcard/internal/report"
)

type exportResponse struct {
	Result *export.Result `json:"result"`
	Plan   *handoff.Plan  `json:"plan"`
}

// handleExport renders a period and returns the plan the client carries
// out: download the files, then open the mail link after the delay.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeErrorBody(w, r, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation",
			Message: "기간을 확인해주세요.",
			Details: validationDetails(err),
		})
		return
	}
	p, err := report.ParsePeriod(req.Period)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "validation", "기간을 확인해주세요.")
		return
	}

	plan := handoff.NewPlan(s.deps.Artifacts, ExportsPath)
	res, err := s.deps.Exporter.Export(r.Context(), p, req.Email, plan)
	switch {
	case errors.Is(err, export.ErrNoData):
		writeErrorBody(w, r, http.StatusNotFound, errorResponse{
			Error:   "no_data",
			Message: firstNotice(plan, mail.NoticeNoData),
			Notices: plan.Notices,
		})
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export request failed",
			log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		writeErrorBody(w, r, http.StatusInternalServerError, errorResponse{
			Error:   "export_failed",
			Message: firstNotice(plan, mail.NoticeExportFailed),
			Notices: plan.Notices,
		})
	default:
		writeJSON(w, http.StatusOK, exportResponse{Result: res, Plan: plan})
	}
}

func firstNotice(p *handoff.Plan, fallback string) string {
	if len(p.Notices) > 0 {
		return p.Notices[0]
	}
	return fallback
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Artifacts.Get(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, artifact.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", "파일이 만료되었습니다. 다시 내보내기 해주세요.")
		return
	}
	if err != nil {
		writeInternal(w, r, "Failed to read export", err)
		return
	}

	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(a.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(a.Data)
}

// handleBackup runs one backup of the current month right away.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	if s.deps.Backup == nil {
		writeError(w, r, http.StatusServiceUnavailable, "backup_disabled", "백업이 비활성화되어 있습니다.")
		return
	}
	res, err := s.deps.Backup.Run(r.Context())
	switch {
	case errors.Is(err, export.ErrNoData):
		writeError(w, r, http.StatusNotFound, "no_data", "이번 달 내역이 없습니다.")
	case err != nil:
		writeInternal(w, r, "Manual backup failed", err)
	default:
		log.FromContext(r.Context()).InfoContext(r.Context(), "Manual backup completed",
			log.FieldOperation, log.OpBackup, log.FieldFilename, res.Filename)
		writeJSON(w, http.StatusOK, res)
	}
}
