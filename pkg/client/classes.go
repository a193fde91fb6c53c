package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type ClassClient struct {
	api *HttpClient
	log *logger.Logger
}

func (c *ClassClient) List(ctx context.Context, filter model.ClassFilter) ([]model.ClassRecord, error) {
	q := url.Values{}
	if filter.TutorID != "" {
		q.Set("tutor_id", filter.TutorID)
	}
	if filter.Subject != "" {
		q.Set("subject", filter.Subject)
	}
	if filter.Day != "" {
		q.Set("day", string(filter.Day))
	}
	if filter.Status != "" {
		q.Set("status", filter.Status)
	}
	if filter.Available != nil {
		q.Set("available", strconv.FormatBool(*filter.Available))
	}

	path := "/api/classes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var classes []model.ClassRecord
	if err := c.api.Call(ctx, http.MethodGet, path, nil, &classes); err != nil {
		return nil, err
	}
	for i := range classes {
		if d, ok := model.ParseWeekday(string(classes[i].Day)); ok {
			classes[i].Day = d
		}
	}
	return keepValid(c.log, "class", classes), nil
}

// Get returns a single class by scanning the listing, since the API exposes
// classes only as a collection.
func (c *ClassClient) Get(ctx context.Context, id string) (*model.ClassRecord, error) {
	classes, err := c.List(ctx, model.ClassFilter{})
	if err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].ID == id {
			return &classes[i], nil
		}
	}
	return nil, &APIError{Status: http.StatusNotFound, Method: http.MethodGet, Path: "/api/classes", Message: "class not found"}
}
