package handler

import (
	"net/http"
	"strconv"

	"tutorly/internal/tutors/service"
	apperrors "tutorly/pkg/errors"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
	"tutorly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const NoticeTutorsUnavailable = "Could not load tutors right now. Please try again later."

type TutorHandler struct {
	service service.TutorService
	log     *logger.Logger
}

func NewTutorHandler(service service.TutorService, log *logger.Logger) *TutorHandler {
	return &TutorHandler{
		service: service,
		log:     log,
	}
}

func (h *TutorHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := parseTutorFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "List", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	page, err := h.service.List(r.Context(), filter)
	if apperrors.IsUpstreamFailure(err) {
		if writeErr := httputil.WriteNotice(w, page.Data, NoticeTutorsUnavailable); writeErr != nil {
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

	if err := httputil.WritePaginated(w, page.Data, page.TotalCount, page.Limit, page.Offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *TutorHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.service.Get(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, detail); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func parseTutorFilter(r *http.Request) (model.TutorFilter, error) {
	query := r.URL.Query()

	page, err := httputil.ExtractPage(r)
	if err != nil {
		return model.TutorFilter{}, err
	}

	filter := model.TutorFilter{
		Page:    page,
		Subject: query.Get("subject"),
		Search:  query.Get("search"),
	}

	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			return model.TutorFilter{}, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		filter.Limit = limit
	}

	if s := query.Get("min_rating"); s != "" {
		rating, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.TutorFilter{}, apperrors.InvalidInput("invalid min_rating parameter: " + s)
		}
		filter.MinRating = rating
	}

	return filter, nil
}

func (h *TutorHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/tutors", h.List)
	router.GET("/api/v1/tutors/:id", h.Get)
}
