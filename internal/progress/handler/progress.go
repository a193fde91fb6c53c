package handler

import (
	"net/http"

	"tutorly/internal/progress/service"
	apperrors "tutorly/pkg/errors"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
	"tutorly/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const NoticeProgressUnavailable = "Could not load your progress right now. Please try again later."

type ProgressHandler struct {
	service service.ProgressService
	log     *logger.Logger
}

func NewProgressHandler(service service.ProgressService, log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		log:     log,
	}
}

func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	studentID := middleware.StudentIDFromContext(r.Context())

	records, err := h.service.List(r.Context(), studentID)
	if apperrors.IsUpstreamFailure(err) {
		if writeErr := httputil.WriteNotice(w, records, NoticeProgressUnavailable); writeErr != nil {
			h.log.Error("failed to write notice response", "handler", "List", "operation", "WriteNotice", "error", writeErr)
		}
		return
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, records); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProgressHandler) Report(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	studentID := middleware.StudentIDFromContext(r.Context())

	report, err := h.service.Report(r.Context(), studentID)
	if apperrors.IsUpstreamFailure(err) {
		if writeErr := httputil.WriteNotice(w, service.BuildReport(studentID, nil), NoticeProgressUnavailable); writeErr != nil {
			h.log.Error("failed to write notice response", "handler", "Report", "operation", "WriteNotice", "error", writeErr)
		}
		return
	}
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Report", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, report); err != nil {
		h.log.Error("failed to write success response", "handler", "Report", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProgressHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/progress", h.List)
	router.GET("/api/v1/progress/report", h.Report)
}
