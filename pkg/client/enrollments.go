package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type EnrollmentClient struct {
	api *HttpClient
	log *logger.Logger
}

func (c *EnrollmentClient) Create(ctx context.Context, req model.EnrollmentRequest) (*model.Enrollment, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}
	var enrollment model.Enrollment
	if err := c.api.Call(ctx, http.MethodPost, "/api/enrollments", req, &enrollment); err != nil {
		return nil, err
	}
	if err := model.Validate(enrollment); err != nil {
		return nil, fmt.Errorf("invalid enrollment from tutoring API: %w", err)
	}
	return &enrollment, nil
}

func (c *EnrollmentClient) ListByStudent(ctx context.Context, studentID string) ([]model.Enrollment, error) {
	path := "/api/enrollments?student_id=" + url.QueryEscape(studentID)
	var enrollments []model.Enrollment
	if err := c.api.Call(ctx, http.MethodGet, path, nil, &enrollments); err != nil {
		return nil, err
	}
	return keepValid(c.log, "enrollment", enrollments), nil
}

func (c *EnrollmentClient) Delete(ctx context.Context, id string) error {
	return c.api.Call(ctx, http.MethodDelete, "/api/enrollments/"+url.PathEscape(id), nil, nil)
}
