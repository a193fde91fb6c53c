package handler

import (
	"net/http"

	"tutorly/internal/availability"
	"tutorly/internal/bookings/service"
	"tutorly/internal/bookings/wizard"
	httputil "tutorly/pkg/http"
	"tutorly/pkg/logger"
	"tutorly/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// WizardView is the wizard as the UI renders it: the state plus the date
// picker and the time picker for the selected date.
type WizardView struct {
	*wizard.State
	Dates []availability.DateSummary  `json:"dates"`
	Times []availability.BookableSlot `json:"times"`
}

func NewWizardView(st *wizard.State) WizardView {
	return WizardView{
		State: st,
		Dates: st.Dates(),
		Times: st.Times(),
	}
}

type createWizardRequest struct {
	TutorID  string `json:"tutor_id"`
	Duration int    `json:"duration"`
}

type tutorRequest struct {
	TutorID string `json:"tutor_id"`
}

type subjectRequest struct {
	Subject string `json:"subject"`
}

type durationRequest struct {
	Duration int `json:"duration"`
}

type dateRequest struct {
	Date string `json:"date"`
}

type timeRequest struct {
	Time   string `json:"time"`
	SlotID string `json:"slot_id"`
}

type detailsRequest struct {
	SessionType string `json:"session_type"`
	Notes       string `json:"notes"`
}

type WizardHandler struct {
	service service.WizardService
	log     *logger.Logger
}

func NewWizardHandler(service service.WizardService, log *logger.Logger) *WizardHandler {
	return &WizardHandler{
		service: service,
		log:     log,
	}
}

func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req createWizardRequest
	// The body is optional: a wizard may start without a tutor.
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "Create", err)
			return
		}
	}

	st, err := h.service.Create(r.Context(), middleware.StudentIDFromContext(r.Context()), req.TutorID, req.Duration)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, NewWizardView(st)); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, err := h.service.Get(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"))
	h.respond(w, "Get", st, err)
}

func (h *WizardHandler) SelectTutor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req tutorRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectTutor", err)
		return
	}
	st, err := h.service.SelectTutor(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), req.TutorID)
	h.respond(w, "SelectTutor", st, err)
}

func (h *WizardHandler) SelectSubject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req subjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectSubject", err)
		return
	}
	st, err := h.service.SelectSubject(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), req.Subject)
	h.respond(w, "SelectSubject", st, err)
}

func (h *WizardHandler) SelectDuration(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req durationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SelectDuration", err)
		return
	}
	st, err := h.service.SelectDuration(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), req.Duration)
	h.respond(w, "SelectDuration", st, err)
}

func (h *WizardHandler) PickDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "PickDate", err)
		return
	}
	st, err := h.service.PickDate(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), req.Date)
	h.respond(w, "PickDate", st, err)
}

func (h *WizardHandler) ChangeDate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, err := h.service.ChangeDate(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"))
	h.respond(w, "ChangeDate", st, err)
}

func (h *WizardHandler) PickTime(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req timeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "PickTime", err)
		return
	}
	st, err := h.service.PickTime(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), service.TimeChoice{
		Time:   req.Time,
		SlotID: req.SlotID,
	})
	h.respond(w, "PickTime", st, err)
}

func (h *WizardHandler) SetDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req detailsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetDetails", err)
		return
	}
	st, err := h.service.SetDetails(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"), req.SessionType, req.Notes)
	h.respond(w, "SetDetails", st, err)
}

func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, err := h.service.Submit(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"))
	h.respond(w, "Submit", st, err)
}

func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, err := h.service.Reset(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id"))
	h.respond(w, "Reset", st, err)
}

func (h *WizardHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), middleware.StudentIDFromContext(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *WizardHandler) respond(w http.ResponseWriter, handler string, st *wizard.State, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, NewWizardView(st)); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *WizardHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *WizardHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/wizards", h.Create)
	router.GET("/api/v1/wizards/:id", h.Get)
	router.DELETE("/api/v1/wizards/:id", h.Delete)
	router.PUT("/api/v1/wizards/:id/tutor", h.SelectTutor)
	router.PUT("/api/v1/wizards/:id/subject", h.SelectSubject)
	router.PUT("/api/v1/wizards/:id/duration", h.SelectDuration)
	router.PUT("/api/v1/wizards/:id/date", h.PickDate)
	router.POST("/api/v1/wizards/:id/change-date", h.ChangeDate)
	router.PUT("/api/v1/wizards/:id/time", h.PickTime)
	router.PUT("/api/v1/wizards/:id/details", h.SetDetails)
	router.POST("/api/v1/wizards/:id/submit", h.Submit)
	router.POST("/api/v1/wizards/:id/reset", h.Reset)
}
