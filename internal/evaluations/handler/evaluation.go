package handler

import (
	"net/http"

	"tutorly/internal/evaluations/service"
	apperrors "tutorly/pkg/errors"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
	"tutorly/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const NoticeEvaluationsUnavailable = "Could not load evaluations right now. Please try again later."

type EvaluationHandler struct {
	service service.EvaluationService
	log     *logger.Logger
}

func NewEvaluationHandler(service service.EvaluationService, log *logger.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		log:     log,
	}
}

func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	evaluations, err := h.service.List(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"))
	if apperrors.IsUpstreamFailure(err) {
		if writeErr := httputil.WriteNotice(w, evaluations, NoticeEvaluationsUnavailable); writeErr != nil {
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

	if err := httputil.WriteSuccess(w, evaluations); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input service.EvaluationInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	evaluation, err := h.service.Create(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), input)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, evaluation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *EvaluationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/sessions/:id/evaluations", h.List)
	router.POST("/api/v1/sessions/:id/evaluations", h.Create)
}
