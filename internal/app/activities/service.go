package activities

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mergington/activities-api/internal/domain"
	"github.com/mergington/activities-api/internal/ports/out/activityrepo"
)

const tracerName = "github.com/mergington/activities-api/internal/app/activities"

type Service struct {
	repo   activityrepo.Repository
	log    *zap.Logger
	tracer trace.Tracer

	// EnforceCapacity rejects signups once the roster reaches MaxParticipants. Off by default.
	EnforceCapacity bool
}

func NewService(repo activityrepo.Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		log:    log,
		tracer: otel.Tracer(tracerName),
	}
}

// SetTracerProviderForTest swaps the tracer so tests can inspect recorded spans.
func (s *Service) SetTracerProviderForTest(tp trace.TracerProvider) {
	s.tracer = tp.Tracer(tracerName)
}

// ListActivities returns every activity in registry order.
func (s *Service) ListActivities(ctx context.Context) ([]domain.Activity, error) {
	ctx, span := s.tracer.Start(ctx, "activities.List")
	defer span.End()

	as, err := s.repo.List(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("list activities: %w", err)
	}
	span.SetAttributes(attribute.Int("activity.count", len(as)))
	return as, nil
}

// Signup adds email to the activity's roster and returns a confirmation message.
func (s *Service) Signup(ctx context.Context, activityName domain.ActivityName, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "activities.Signup", trace.WithAttributes(
		attribute.String("activity.name", string(activityName)),
	))
	defer span.End()

	if err := validateEmail(email); err != nil {
		recordSpanError(span, err)
		return "", err
	}

	if err := s.repo.AddParticipant(ctx, activityName, email, s.EnforceCapacity); err != nil {
		var out error
		switch {
		case errors.Is(err, activityrepo.ErrNotFound):
			out = errActivityNotFound()
		case errors.Is(err, activityrepo.ErrAlreadyEnrolled):
			out = errAlreadySignedUp()
		case errors.Is(err, activityrepo.ErrFull):
			out = errActivityFull()
		default:
			out = fmt.Errorf("signup %q: %w", activityName, err)
		}
		recordSpanError(span, out)
		return "", out
	}

	s.log.Debug("participant signed up",
		zap.String("activity", string(activityName)),
		zap.String("email", email),
	)
	return fmt.Sprintf("Signed up %s for %s", email, activityName), nil
}

// Unregister removes email from the activity's roster and returns a confirmation message.
func (s *Service) Unregister(ctx context.Context, activityName domain.ActivityName, email string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "activities.Unregister", trace.WithAttributes(
		attribute.String("activity.name", string(activityName)),
	))
	defer span.End()

	if err := validateEmail(email); err != nil {
		recordSpanError(span, err)
		return "", err
	}

	if err := s.repo.RemoveParticipant(ctx, activityName, email); err != nil {
		var out error
		switch {
		case errors.Is(err, activityrepo.ErrNotFound):
			out = errActivityNotFound()
		case errors.Is(err, activityrepo.ErrNotEnrolled):
			out = errNotSignedUp()
		default:
			out = fmt.Errorf("unregister %q: %w", activityName, err)
		}
		recordSpanError(span, out)
		return "", out
	}

	s.log.Debug("participant unregistered",
		zap.String("activity", string(activityName)),
		zap.String("email", email),
	)
	return fmt.Sprintf("Unregistered %s from %s", email, activityName), nil
}

// Emails are opaque; only emptiness is rejected.
func validateEmail(email string) error {
	if email == "" {
		return &Error{Status: 422, Code: CodeValidation, Message: "email must be non-empty"}
	}
	return nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
