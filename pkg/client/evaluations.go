package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type EvaluationClient struct {
	api *HttpClient
	log *logger.Logger
}

func (c *EvaluationClient) ListBySession(ctx context.Context, sessionID string) ([]model.Evaluation, error) {
	path := "/api/evaluations?session_id=" + url.QueryEscape(sessionID)
	var evaluations []model.Evaluation
	if err := c.api.Call(ctx, http.MethodGet, path, nil, &evaluations); err != nil {
		return nil, err
	}
	return keepValid(c.log, "evaluation", evaluations), nil
}

func (c *EvaluationClient) Create(ctx context.Context, req model.EvaluationRequest) (*model.Evaluation, error) {
	if err := model.Validate(req); err != nil {
		return nil, err
	}
	var evaluation model.Evaluation
	if err := c.api.Call(ctx, http.MethodPost, "/api/evaluations", req, &evaluation); err != nil {
		return nil, err
	}
	if err := model.Validate(evaluation); err != nil {
		return nil, fmt.Errorf("invalid evaluation from tutoring API: %w", err)
	}
	return &evaluation, nil
}
