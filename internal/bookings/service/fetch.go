package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tutorly/pkg/model"
	"tutorly/pkg/sanitizer"
)

// fetchAvailability loads the tutor's windows, classes and profile
// concurrently. Windows and classes are required; the profile only supplies
// the subject list and is skipped when it cannot be read.
func (s *wizardService) fetchAvailability(ctx context.Context, load *slotLoad) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		windows, err := s.upstream.Availability.Windows(gctx, load.tutorID, s.cfg.ExcludeClassTimes)
		if err != nil {
			return fmt.Errorf("availability: %w", err)
		}
		load.windows = windows
		return nil
	})

	g.Go(func() error {
		classes, err := s.upstream.Classes.List(gctx, model.ClassFilter{TutorID: load.tutorID})
		if err != nil {
			return fmt.Errorf("classes: %w", err)
		}
		load.classes = classes
		return nil
	})

	g.Go(func() error {
		user, err := s.upstream.Users.Get(gctx, load.tutorID)
		if err != nil {
			if gctx.Err() == nil {
				s.cfg.Log.Warn("Tutor profile unavailable, subjects unknown", "tutor_id", load.tutorID, "error", err)
			}
			return nil
		}
		load.subjects = sanitizer.NormalizeSubjects(user.Subjects)
		return nil
	})

	return g.Wait()
}
