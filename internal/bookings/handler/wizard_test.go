package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tutorly/internal/availability"
	"tutorly/internal/bookings/service"
	"tutorly/internal/bookings/wizard"
	apperrors "tutorly/pkg/errors"
	"tutorly/pkg/logger"
	"tutorly/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

// Mock service for testing
type mockWizardService struct {
	createFunc   func(ctx context.Context, studentID, tutorID string, duration int) (*wizard.State, error)
	getFunc      func(ctx context.Context, studentID, id string) (*wizard.State, error)
	pickTimeFunc func(ctx context.Context, studentID, id string, choice service.TimeChoice) (*wizard.State, error)
	submitFunc   func(ctx context.Context, studentID, id string) (*wizard.State, error)
	deleteFunc   func(ctx context.Context, studentID, id string) error
}

func (m *mockWizardService) Create(ctx context.Context, studentID, tutorID string, duration int) (*wizard.State, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, studentID, tutorID, duration)
	}
	st := wizard.New("w-1", studentID, 60)
	return &st, nil
}

func (m *mockWizardService) Get(ctx context.Context, studentID, id string) (*wizard.State, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, studentID, id)
	}
	st := wizard.New(id, studentID, 60)
	return &st, nil
}

func (m *mockWizardService) SelectTutor(ctx context.Context, studentID, id, tutorID string) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) SelectSubject(ctx context.Context, studentID, id, subject string) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) SelectDuration(ctx context.Context, studentID, id string, minutes int) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) PickDate(ctx context.Context, studentID, id, date string) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) ChangeDate(ctx context.Context, studentID, id string) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) PickTime(ctx context.Context, studentID, id string, choice service.TimeChoice) (*wizard.State, error) {
	if m.pickTimeFunc != nil {
		return m.pickTimeFunc(ctx, studentID, id, choice)
	}
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) SetDetails(ctx context.Context, studentID, id, sessionType, notes string) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) Submit(ctx context.Context, studentID, id string) (*wizard.State, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, studentID, id)
	}
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) Reset(ctx context.Context, studentID, id string) (*wizard.State, error) {
	return m.Get(ctx, studentID, id)
}

func (m *mockWizardService) Delete(ctx context.Context, studentID, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, studentID, id)
	}
	return nil
}

func newWizardRouter(svc service.WizardService) *httprouter.Router {
	router := httprouter.New()
	NewWizardHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req = req.WithContext(middleware.WithStudentID(req.Context(), "stu-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type viewEnvelope struct {
	Data struct {
		ID        string                      `json:"id"`
		Phase     string                      `json:"phase"`
		Notice    string                      `json:"notice"`
		Selection wizard.Selection            `json:"selection"`
		Dates     []availability.DateSummary  `json:"dates"`
		Times     []map[string]any            `json:"times"`
		Slots     []availability.BookableSlot `json:"slots"`
	} `json:"data"`
}

func TestCreate_OptionalBody(t *testing.T) {
	var gotStudent, gotTutor string
	var gotDuration int
	router := newWizardRouter(&mockWizardService{
		createFunc: func(ctx context.Context, studentID, tutorID string, duration int) (*wizard.State, error) {
			gotStudent, gotTutor, gotDuration = studentID, tutorID, duration
			st := wizard.New("w-1", studentID, 60)
			return &st, nil
		},
	})

	tests := []struct {
		name         string
		body         string
		wantTutor    string
		wantDuration int
	}{
		{"no body", "", "", 0},
		{"preselected tutor", `{"tutor_id":"tutor-1","duration":90}`, "tutor-1", 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, http.MethodPost, "/api/v1/wizards", tt.body)

			if w.Code != http.StatusCreated {
				t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
			}
			if gotStudent != "stu-1" || gotTutor != tt.wantTutor || gotDuration != tt.wantDuration {
				t.Errorf("unexpected service arguments %q %q %d", gotStudent, gotTutor, gotDuration)
			}

			var resp viewEnvelope
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Data.Phase != string(wizard.PhaseNoTutor) || resp.Data.Notice != wizard.NoticeSelectTutor {
				t.Errorf("unexpected view %+v", resp.Data)
			}
		})
	}
}

func TestCreate_RejectsUnknownFields(t *testing.T) {
	router := newWizardRouter(&mockWizardService{})

	w := serve(router, http.MethodPost, "/api/v1/wizards", `{"tutor":"tutor-1"}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestGet_RendersDatePickerAndTimePicker(t *testing.T) {
	router := newWizardRouter(&mockWizardService{
		getFunc: func(ctx context.Context, studentID, id string) (*wizard.State, error) {
			st := wizard.New(id, studentID, 60)
			st.Phase = wizard.PhasePickingTime
			st.Selection.TutorID = "tutor-1"
			st.Selection.Date = "2026-10-19"
			st.Slots = []availability.BookableSlot{
				{ID: "tok-1", Date: "2026-10-19", StartTime: "7:00 AM", EndTime: "8:00 AM", Duration: 60},
				{ID: "tok-2", Date: "2026-10-19", StartTime: "8:00 AM", EndTime: "9:00 AM", Duration: 60},
				{ID: "tok-3", Date: "2026-10-26", StartTime: "7:00 AM", EndTime: "8:00 AM", Duration: 60},
			}
			return &st, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/wizards/w-1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var resp viewEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Dates) != 2 || resp.Data.Dates[0].SlotCount != 2 {
		t.Errorf("unexpected dates %+v", resp.Data.Dates)
	}
	if len(resp.Data.Times) != 2 || resp.Data.Times[1]["slot_id"] != "tok-2" {
		t.Errorf("unexpected times %+v", resp.Data.Times)
	}
	if resp.Data.Slots != nil {
		t.Error("the raw slot list should not be serialized")
	}
}

func TestPickTime_PassesSlotID(t *testing.T) {
	var got service.TimeChoice
	router := newWizardRouter(&mockWizardService{
		pickTimeFunc: func(ctx context.Context, studentID, id string, choice service.TimeChoice) (*wizard.State, error) {
			got = choice
			st := wizard.New(id, studentID, 60)
			return &st, nil
		},
	})

	w := serve(router, http.MethodPut, "/api/v1/wizards/w-1/time", `{"slot_id":"tok-2"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got.SlotID != "tok-2" || got.Time != "" {
		t.Errorf("unexpected choice %+v", got)
	}
}

func TestSubmit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "incomplete",
			err:        apperrors.Validation("Booking is incomplete", map[string]any{"missing": []string{"subject"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeValidation,
			wantError:  "Booking is incomplete",
		},
		{
			name:       "rejected upstream",
			err:        apperrors.UpstreamRejected(http.StatusConflict, "Tutor is already booked at this time", nil),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeUpstreamRejected,
			wantError:  "Tutor is already booked at this time",
		},
		{
			name:       "missing wizard",
			err:        apperrors.NotFoundWithID("Wizard", "w-1"),
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newWizardRouter(&mockWizardService{
				submitFunc: func(ctx context.Context, studentID, id string) (*wizard.State, error) {
					return nil, tt.err
				},
			})

			w := serve(router, http.MethodPost, "/api/v1/wizards/w-1/submit", "")

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp struct {
				Code  string `json:"code"`
				Error string `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if tt.wantError != "" && resp.Error != tt.wantError {
				t.Errorf("expected message %q, got %q", tt.wantError, resp.Error)
			}
		})
	}
}

func TestDelete_NoContent(t *testing.T) {
	var gotID string
	router := newWizardRouter(&mockWizardService{
		deleteFunc: func(ctx context.Context, studentID, id string) error {
			gotID = id
			return nil
		},
	})

	w := serve(router, http.MethodDelete, "/api/v1/wizards/w-9", "")

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", w.Code)
	}
	if gotID != "w-9" {
		t.Errorf("expected id w-9, got %q", gotID)
	}
}
