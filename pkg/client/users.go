package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"tutorly/pkg/model"
)

type UserClient struct {
	api *HttpClient
}

func (c *UserClient) Get(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := c.api.Call(ctx, http.MethodGet, "/api/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	if err := model.Validate(user); err != nil {
		return nil, fmt.Errorf("invalid user %s from tutoring API: %w", id, err)
	}
	return &user, nil
}
