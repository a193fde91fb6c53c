package client

import (
	"context"
	"net/http"
	"net/url"

	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type AvailabilityClient struct {
	api *HttpClient
	log *logger.Logger
}

// Windows fetches the tutor's recurring weekly availability. With
// excludeClasses the API removes times already claimed by fixed classes.
func (c *AvailabilityClient) Windows(ctx context.Context, tutorID string, excludeClasses bool) ([]model.AvailabilityWindow, error) {
	path := "/api/tutors/" + url.PathEscape(tutorID) + "/availability"
	if excludeClasses {
		path += "?exclude_classes=true"
	}

	var windows []model.AvailabilityWindow
	if err := c.api.Call(ctx, http.MethodGet, path, nil, &windows); err != nil {
		return nil, err
	}
	for i := range windows {
		if d, ok := model.ParseWeekday(string(windows[i].Day)); ok {
			windows[i].Day = d
		}
	}
	return keepValid(c.log, "availability_window", windows), nil
}
