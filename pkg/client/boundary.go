package client

import (
	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

// keepValid drops records that fail boundary validation so downstream code
// never sees a malformed shape.
func keepValid[T any](log *logger.Logger, resource string, items []T) []T {
	valid := make([]T, 0, len(items))
	for i, item := range items {
		if err := model.Validate(item); err != nil {
			log.Warn("Dropping invalid record from tutoring API",
				"resource", resource,
				"index", i,
				"error", err,
			)
			continue
		}
		valid = append(valid, item)
	}
	return valid
}
