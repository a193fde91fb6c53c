package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type TutorClient struct {
	api *HttpClient
	log *logger.Logger
}

type tutorPage struct {
	Tutors     []model.Tutor `json:"tutors"`
	Items      []model.Tutor `json:"items"`
	TotalCount int64         `json:"total_count"`
	Total      int64         `json:"total"`
}

// List fetches one page of tutors. The API answers either with a bare array
// or with a paginated object, both inside the data envelope.
func (c *TutorClient) List(ctx context.Context, filter model.TutorFilter) (model.Page[model.Tutor], error) {
	q := url.Values{}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Subject != "" {
		q.Set("subject", filter.Subject)
	}
	if filter.MinRating > 0 {
		q.Set("min_rating", strconv.FormatFloat(filter.MinRating, 'f', -1, 64))
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	path := "/api/tutors"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.api.GET(ctx, path)
	if err != nil {
		return model.Page[model.Tutor]{}, err
	}
	if !resp.IsSuccess() {
		return model.Page[model.Tutor]{}, &APIError{Status: resp.StatusCode, Method: http.MethodGet, Path: path, Message: GetErrorMessage(resp)}
	}

	var tutors []model.Tutor
	var total int64
	if err := decodeEnvelope(resp, &tutors); err != nil {
		var paged tutorPage
		if pagedErr := decodeEnvelope(resp, &paged); pagedErr != nil {
			return model.Page[model.Tutor]{}, err
		}
		tutors = paged.Tutors
		if tutors == nil {
			tutors = paged.Items
		}
		total = max(paged.TotalCount, paged.Total)
	}

	tutors = keepValid(c.log, "tutor", tutors)
	if total == 0 {
		total = int64(len(tutors))
	}

	page := model.Page[model.Tutor]{
		Data:       tutors,
		TotalCount: total,
		Limit:      filter.Limit,
	}
	if filter.Page > 1 && filter.Limit > 0 {
		page.Offset = int64((filter.Page - 1) * filter.Limit)
	}
	return page, nil
}
