package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"referearn/internal/notify"
	"referearn/internal/platform/logger"
	"referearn/internal/platform/metrics"
	"referearn/internal/referral/models"
	dErrors "referearn/pkg/domain-errors"
	"referearn/pkg/requestcontext"
)

// ServiceName is reported by the health snapshot.
const ServiceName = "Refer & Earn API"

const (
	defaultCourseBaseURL = "http://yourwebsite.com"
	// healthPingTimeout keeps /health answering when the store stalls.
	healthPingTimeout = 2 * time.Second
	tracerName        = "referearn/internal/referral/service"
)

type Store interface {
	Create(ctx context.Context, referral models.NewReferral) (models.Referral, error)
	List(ctx context.Context) ([]models.Referral, error)
	Ping(ctx context.Context) error
}

type Notifier interface {
	Send(ctx context.Context, msg notify.Message) error
}

// Service validates submissions, persists them and notifies the referee.
//
// A submission runs strictly in order: validate, store, send. A send failure
// does not undo the store write, so a referral can exist without its email.
type Service struct {
	store         Store
	notifier      Notifier
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	courseBaseURL string
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithCourseBaseURL sets the host the course link in emails points at.
func WithCourseBaseURL(baseURL string) Option {
	return func(s *Service) {
		if baseURL != "" {
			s.courseBaseURL = baseURL
		}
	}
}

// New constructs a Service.
func New(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:         store,
		notifier:      notifier,
		logger:        logger.Discard(),
		tracer:        otel.Tracer(tracerName),
		courseBaseURL: defaultCourseBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates sub, stores it as a pending referral and emails the
// referee. Errors carry one of CodeValidation, CodeStore or CodeNotification.
func (s *Service) Submit(ctx context.Context, sub models.Submission) (*models.Referral, error) {
	ctx, span := s.tracer.Start(ctx, "referral.submit")
	defer span.End()

	requestID := requestcontext.RequestID(ctx)
	s.logger.InfoContext(ctx, "received referral request",
		"request_id", requestID,
		"referrer_name", sub.ReferrerName,
		"referrer_email", sub.ReferrerEmail,
		"referee_name", sub.RefereeName,
		"referee_email", sub.RefereeEmail,
		"course", sub.Course,
	)

	pending, err := sub.ToNewReferral()
	if err != nil {
		s.logger.InfoContext(ctx, "referral validation failed",
			"request_id", requestID,
			"error", err,
		)
		s.metrics.IncrementSubmitted(metrics.OutcomeInvalid)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	referral, err := s.create(ctx, pending)
	if err != nil {
		s.metrics.IncrementSubmitted(metrics.OutcomeStoreFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "store write failed")
		return nil, dErrors.Wrap(err, dErrors.CodeStore, "failed to create referral")
	}
	span.SetAttributes(attribute.String("referral.id", referral.ID.String()))
	s.logger.InfoContext(ctx, "referral created",
		"request_id", requestID,
		"referral_id", referral.ID,
		"created_at", referral.CreatedAt,
	)

	if err := s.notify(ctx, referral); err != nil {
		// The record stays persisted; there is no compensating delete.
		s.logger.ErrorContext(ctx, "referral stored but email not sent",
			"request_id", requestID,
			"referral_id", referral.ID,
			"referee_email", referral.RefereeEmail,
			"error", err,
		)
		s.metrics.IncrementSubmitted(metrics.OutcomeNotifyFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification failed")
		return nil, dErrors.Wrap(err, dErrors.CodeNotification, "failed to send referral email")
	}
	s.logger.InfoContext(ctx, "email sent successfully",
		"request_id", requestID,
		"referral_id", referral.ID,
		"to", referral.RefereeEmail,
	)

	s.metrics.IncrementSubmitted(metrics.OutcomeCreated)
	return &referral, nil
}

func (s *Service) create(ctx context.Context, pending models.NewReferral) (models.Referral, error) {
	ctx, span := s.tracer.Start(ctx, "referral.store.create")
	defer span.End()

	referral, err := s.store.Create(ctx, pending)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return referral, err
}

func (s *Service) notify(ctx context.Context, referral models.Referral) error {
	ctx, span := s.tracer.Start(ctx, "referral.notify.send")
	defer span.End()

	msg, err := BuildMessage(s.courseBaseURL, referral)
	if err != nil {
		span.RecordError(err)
		return err
	}

	start := time.Now()
	err = s.notifier.Send(ctx, msg)
	s.metrics.ObserveNotificationSend(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// List returns every referral, newest first.
func (s *Service) List(ctx context.Context) ([]models.Referral, error) {
	referrals, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStoreUnavailable, "failed to list referrals")
	}
	s.metrics.IncrementListed()
	return referrals, nil
}

// Health reports service status. An unreachable store is reported in the
// snapshot, never as an error.
func (s *Service) Health(ctx context.Context) models.HealthStatus {
	status := models.HealthStatus{
		Status:             models.HealthStatusOK,
		Timestamp:          requestcontext.Now(ctx).UTC(),
		Service:            ServiceName,
		DatabaseConnection: models.DatabaseConnected,
	}

	pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := s.store.Ping(pingCtx); err != nil {
		s.logger.WarnContext(ctx, "store ping failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		status.DatabaseConnection = models.DatabaseNotConnected
	}
	return status
}
