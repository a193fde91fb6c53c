// Package portal assembles the student portal from configuration.
package portal

import (
	"context"
	"fmt"

	bookingshandler "tutorly/internal/bookings/handler"
	"tutorly/internal/bookings/repository"
	bookingsservice "tutorly/internal/bookings/service"
	enrollmentshandler "tutorly/internal/enrollments/handler"
	enrollmentsservice "tutorly/internal/enrollments/service"
	evaluationshandler "tutorly/internal/evaluations/handler"
	evaluationsservice "tutorly/internal/evaluations/service"
	"tutorly/internal/events"
	progresshandler "tutorly/internal/progress/handler"
	progressservice "tutorly/internal/progress/service"
	tutorshandler "tutorly/internal/tutors/handler"
	tutorsservice "tutorly/internal/tutors/service"
	"tutorly/pkg/app"
	"tutorly/pkg/config"
	"tutorly/pkg/contracts"
	"tutorly/pkg/sealer"
)

// New wires every feature against cfg.Client and returns a configured
// application. The publisher is closed when the application stops.
func New(ctx context.Context, cfg *config.Config, publisher events.Publisher) (*app.Application, error) {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}

	tokens, err := sealer.New(cfg.SlotTokenKey)
	if err != nil {
		return nil, fmt.Errorf("invalid slot token key: %w", err)
	}

	wizards, err := newWizardRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api := cfg.Client
	wizardService := bookingsservice.NewWizardService(
		wizards,
		bookingsservice.Upstream{
			Availability: api.Availability,
			Classes:      api.Classes,
			Users:        api.Users,
			Sessions:     api.Sessions,
		},
		tokens,
		publisher,
		cfg,
	)
	tutorService := tutorsservice.NewTutorService(api.Tutors, api.Users, api.Availability, cfg)
	enrollmentService := enrollmentsservice.NewEnrollmentService(api.Classes, api.Enrollments, publisher, cfg)
	evaluationService := evaluationsservice.NewEvaluationService(api.Sessions, api.Evaluations, publisher, cfg)
	progressService := progressservice.NewProgressService(api.Progress, cfg)

	application := app.NewApplication(cfg)
	application.SetApp(
		bookingshandler.NewWizardHandler(wizardService, cfg.Log),
		tutorshandler.NewTutorHandler(tutorService, cfg.Log),
		enrollmentshandler.NewEnrollmentHandler(enrollmentService, cfg.Log),
		evaluationshandler.NewEvaluationHandler(evaluationService, cfg.Log),
		progresshandler.NewProgressHandler(progressService, cfg.Log),
	)
	application.OnShutdown(
		wizards,
		contracts.StopFunc(func() {
			if err := publisher.Close(); err != nil {
				cfg.Log.Error("Failed to close event publisher", "error", err)
			}
		}),
	)

	cfg.Log.Info("Portal services initialized", "wizard_store", cfg.WizardStore)
	return application, nil
}

func newWizardRepository(ctx context.Context, cfg *config.Config) (repository.WizardRepository, error) {
	switch cfg.WizardStore {
	case config.WizardStoreMongo:
		if cfg.Client.Mongo == nil {
			return nil, fmt.Errorf("wizard store %q requires a Mongo connection", cfg.WizardStore)
		}
		return repository.NewMongoWizardRepository(ctx, cfg)
	default:
		return repository.NewMemoryWizardRepository(cfg.WizardTTL), nil
	}
}
