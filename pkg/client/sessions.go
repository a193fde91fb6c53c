package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tutorly/pkg/model"
)

type SessionClient struct {
	api *HttpClient
}

// Create books a session and returns the identifier assigned by the API.
func (c *SessionClient) Create(ctx context.Context, req model.SessionRequest) (string, error) {
	if err := model.Validate(req); err != nil {
		return "", err
	}
	var created model.CreatedResource
	if err := c.api.Call(ctx, http.MethodPost, "/api/sessions", req, &created); err != nil {
		return "", err
	}
	if err := model.Validate(created); err != nil {
		return "", fmt.Errorf("tutoring API returned no session id: %w", err)
	}
	return created.ID, nil
}

func (c *SessionClient) Get(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := c.api.Call(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &session); err != nil {
		return nil, err
	}
	if err := model.Validate(session); err != nil {
		return nil, fmt.Errorf("invalid session %s from tutoring API: %w", id, err)
	}
	return &session, nil
}
