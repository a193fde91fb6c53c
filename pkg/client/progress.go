package client

import (
	"context"
	"net/http"
	"net/url"

	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type ProgressClient struct {
	api *HttpClient
	log *logger.Logger
}

func (c *ProgressClient) ListByStudent(ctx context.Context, studentID string) ([]model.ProgressRecord, error) {
	path := "/api/progress?student_id=" + url.QueryEscape(studentID)
	var records []model.ProgressRecord
	if err := c.api.Call(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return keepValid(c.log, "progress_record", records), nil
}
