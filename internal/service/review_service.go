package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/repository"
)

// ReviewService lets teachers attach feedback to a graded submission and, when
// needed, override the computed score. Answers and their stored correctness
// flags are never touched; the graded snapshot stays intact.
type ReviewService interface {
	Review(ctx context.Context, submissionID uint, payload dto.ReviewRequest, actor CallerIdentity) (dto.SubmissionResponse, error)
}

type reviewService struct {
	repo      repository.SubmissionRepository
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReviewService constructs the review service.
func NewReviewService(repo repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "review_service").Logger(),
		tracer:    otel.Tracer("github.com/quizzq/quizzq-api/internal/service/review"),
		now:       time.Now,
	}
}

func (s *reviewService) Review(ctx context.Context, submissionID uint, payload dto.ReviewRequest, actor CallerIdentity) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.update", trace.WithAttributes(
		attribute.Int64("review.submission_id", int64(submissionID)),
		attribute.Int64("review.actor_id", int64(actor.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.repo.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	feedback := strings.TrimSpace(payload.Feedback)

	sameScore := payload.ScoreOverride == nil || *payload.ScoreOverride == submission.Score
	if sameScore && feedback == strings.TrimSpace(submission.Feedback) &&
		submission.ReviewedBy != nil && *submission.ReviewedBy == actor.ID {
		span.SetAttributes(attribute.Bool("review.idempotent", true))
		return dto.NewSubmissionResponse(submission), nil
	}

	submission.Feedback = feedback
	if payload.ScoreOverride != nil {
		submission.Score = *payload.ScoreOverride
	}
	reviewedAt := s.now()
	submission.ReviewedAt = &reviewedAt
	reviewedBy := actor.ID
	submission.ReviewedBy = &reviewedBy

	if err := s.repo.Update(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, err
	}

	span.SetAttributes(attribute.Int("review.score", submission.Score))

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Uint("reviewed_by", actor.ID).
		Msg("submission reviewed")

	return dto.NewSubmissionResponse(submission), nil
}
