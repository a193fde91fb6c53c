package handler

import (
	"net/http"
	"strconv"

	"tutorly/internal/enrollments/service"
	apperrors "tutorly/pkg/errors"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
	"tutorly/pkg/middleware"
	"tutorly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	NoticeClassesUnavailable     = "Could not load classes right now. Please try again later."
	NoticeEnrollmentsUnavailable = "Could not load your enrollments right now. Please try again later."
)

type enrollRequest struct {
	ClassID string `json:"class_id"`
}

type EnrollmentHandler struct {
	service service.EnrollmentService
	log     *logger.Logger
}

func NewEnrollmentHandler(service service.EnrollmentService, log *logger.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		service: service,
		log:     log,
	}
}

func (h *EnrollmentHandler) ListClasses(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseClassFilter(r)
	if err != nil {
		h.writeError(w, "ListClasses", err)
		return
	}

	classes, err := h.service.ListClasses(r.Context(), middleware.StudentIDFromContext(r.Context()), filter)
	h.writeList(w, "ListClasses", classes, NoticeClassesUnavailable, err)
}

func (h *EnrollmentHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	enrollments, err := h.service.ListMine(r.Context(), middleware.StudentIDFromContext(r.Context()))
	h.writeList(w, "ListMine", enrollments, NoticeEnrollmentsUnavailable, err)
}

func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req enrollRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Enroll", err)
		return
	}

	enrollment, err := h.service.Enroll(r.Context(), middleware.StudentIDFromContext(r.Context()), req.ClassID)
	if err != nil {
		h.writeError(w, "Enroll", err)
		return
	}

	if err := httputil.WriteCreated(w, enrollment); err != nil {
		h.log.Error("failed to write created response", "handler", "Enroll", "operation", "WriteCreated", "error", err)
	}
}

func (h *EnrollmentHandler) Unenroll(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Unenroll(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Unenroll", err)
		return
	}

	httputil.WriteNoContent(w)
}

// writeList answers a list view. When the API could not be reached the
// student gets an empty list and a notice instead of an error page.
func (h *EnrollmentHandler) writeList(w http.ResponseWriter, handler string, data any, notice string, err error) {
	if apperrors.IsUpstreamFailure(err) {
		if writeErr := httputil.WriteNotice(w, data, notice); writeErr != nil {
			h.log.Error("failed to write notice response", "handler", handler, "operation", "WriteNotice", "error", writeErr)
		}
		return
	}
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *EnrollmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func parseClassFilter(r *http.Request) (model.ClassFilter, error) {
	query := r.URL.Query()

	filter := model.ClassFilter{
		TutorID: query.Get("tutor_id"),
		Subject: query.Get("subject"),
		Status:  query.Get("status"),
	}

	if s := query.Get("day"); s != "" {
		day, ok := model.ParseWeekday(s)
		if !ok {
			return model.ClassFilter{}, apperrors.InvalidInput("invalid day parameter: " + s)
		}
		filter.Day = day
	}

	if s := query.Get("available"); s != "" {
		available, err := strconv.ParseBool(s)
		if err != nil {
			return model.ClassFilter{}, apperrors.InvalidInput("invalid available parameter: " + s)
		}
		filter.Available = &available
	}

	if filter.Status != "" {
		if err := model.ValidateVar("status", filter.Status, "oneof=active inactive cancelled completed"); err != nil {
			return model.ClassFilter{}, apperrors.InvalidInput("invalid status parameter: " + filter.Status)
		}
	}

	return filter, nil
}

func (h *EnrollmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/classes", h.ListClasses)
	router.GET("/api/v1/enrollments", h.ListMine)
	router.POST("/api/v1/enrollments", h.Enroll)
	router.DELETE("/api/v1/enrollments/:id", h.Unenroll)
}
