package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/grading"
	"github.com/quizzq/quizzq-api/internal/models"
	"github.com/quizzq/quizzq-api/internal/observability"
	"github.com/quizzq/quizzq-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrDuplicateSubmission indicates a submission already exists for the
// (student, assignment) pair. The existing record is left untouched.
var ErrDuplicateSubmission = errors.New("submission already exists for this assignment")

// ErrUnknownQuestion indicates the answer payload references a question that
// does not belong to the assignment, or answers the same question twice.
var ErrUnknownQuestion = errors.New("answer references an unknown or duplicated question")

// ErrInvalidOption indicates an answer selects an option index outside the
// question's option range.
var ErrInvalidOption = errors.New("selected option is out of range")

// SubmissionService records and grades student quiz submissions.
type SubmissionService interface {
	Submit(ctx context.Context, caller CallerIdentity, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	GetOwn(ctx context.Context, caller CallerIdentity, assignmentID uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/quizzq/quizzq-api/internal/service/submission"),
	}
}

// Submit validates the answer set, grades it against the assignment key and
// persists the graded submission exactly once. The duplicate check here is a
// fast path; the unique index on (assignment_id, student_id) settles races.
func (s *submissionService) Submit(ctx context.Context, caller CallerIdentity, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit", trace.WithAttributes(
		attribute.Int64("submission.assignment_id", int64(assignmentID)),
		attribute.Int64("submission.student_id", int64(caller.ID)),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if _, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, caller.ID); err == nil {
		observability.Submissions().WithLabelValues("duplicate").Inc()
		span.SetStatus(codes.Error, "duplicate_submission")
		return dto.SubmissionResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetWithQuestions(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.Submissions().WithLabelValues("not_found").Inc()
			span.SetStatus(codes.Error, "assignment_not_found")
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	if len(assignment.Questions) == 0 {
		err := fmt.Errorf("%w: assignment %d has no questions", grading.ErrMalformedAssignment, assignmentID)
		observability.Submissions().WithLabelValues("malformed").Inc()
		s.logger.Error().Uint("assignment_id", assignmentID).Msg("assignment has no questions")
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed_assignment")
		return dto.SubmissionResponse{}, err
	}

	selected, err := buildAnswerMap(assignment.Questions, payload.Answers)
	if err != nil {
		observability.Submissions().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_answer_payload")
		return dto.SubmissionResponse{}, err
	}

	key := make([]grading.Question, 0, len(assignment.Questions))
	for _, question := range assignment.Questions {
		key = append(key, grading.Question{
			ID:            question.ID,
			CorrectOption: question.CorrectOption,
			OptionCount:   len(question.OptionList()),
		})
	}

	result, err := grading.Grade(key, selected)
	if err != nil {
		outcome := "rejected"
		if errors.Is(err, grading.ErrMalformedAssignment) {
			outcome = "malformed"
			s.logger.Error().Err(err).Uint("assignment_id", assignmentID).Msg("assignment has an unusable answer key")
		}
		observability.Submissions().WithLabelValues(outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading_failed")
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignmentID,
		StudentID:    caller.ID,
		Score:        result.Score,
		Answers:      make([]models.Answer, 0, len(result.Answers)),
	}
	for _, answer := range result.Answers {
		submission.Answers = append(submission.Answers, models.Answer{
			QuestionID:     answer.QuestionID,
			SelectedOption: answer.SelectedOption,
			IsCorrect:      answer.Correct,
		})
	}

	if err := s.submissions.CreateWithAnswers(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent submit for the same pair.
			observability.Submissions().WithLabelValues("duplicate").Inc()
			span.SetStatus(codes.Error, "duplicate_submission")
			return dto.SubmissionResponse{}, ErrDuplicateSubmission
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_write_failed")
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	observability.Submissions().WithLabelValues("graded").Inc()
	observability.SubmissionScores().Observe(float64(result.Score))
	span.SetAttributes(attribute.Int("submission.score", result.Score))

	s.logger.Info().
		Uint("submission_id", created.ID).
		Uint("assignment_id", assignmentID).
		Uint("student_id", caller.ID).
		Int("score", result.Score).
		Msg("submission graded")

	return dto.NewSubmissionResponse(created), nil
}

// GetOwn returns the caller's graded submission for the assignment.
func (s *submissionService) GetOwn(ctx context.Context, caller CallerIdentity, assignmentID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByAssignmentAndStudent(ctx, assignmentID, caller.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter repository.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

// buildAnswerMap converts the validated payload into the question->option map
// the grader expects, rejecting references outside the assignment and option
// indices outside the question's range.
func buildAnswerMap(questions []models.Question, answers []dto.SubmissionAnswerInput) (map[uint]int, error) {
	optionCounts := make(map[uint]int, len(questions))
	for _, question := range questions {
		optionCounts[question.ID] = len(question.OptionList())
	}

	selected := make(map[uint]int, len(answers))
	for _, answer := range answers {
		count, ok := optionCounts[answer.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: question %d", ErrUnknownQuestion, answer.QuestionID)
		}
		if _, dup := selected[answer.QuestionID]; dup {
			return nil, fmt.Errorf("%w: question %d answered twice", ErrUnknownQuestion, answer.QuestionID)
		}
		if *answer.SelectedOption >= count {
			return nil, fmt.Errorf("%w: question %d has %d options", ErrInvalidOption, answer.QuestionID, count)
		}
		selected[answer.QuestionID] = *answer.SelectedOption
	}

	return selected, nil
}
