package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/models"
	"github.com/quizzq/quizzq-api/internal/repository"
)

// ProgressService produces aggregated quiz progress for a student.
type ProgressService interface {
	GetProgress(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error)
}

type progressService struct {
	assignments repository.AssignmentRepository
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProgressService builds the progress aggregator. The cache client may be
// nil, in which case every call recomputes from the database.
func NewProgressService(assignments repository.AssignmentRepository, submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ProgressService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &progressService{
		assignments: assignments,
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "progress_service").Logger(),
		now:         time.Now,
	}
}

func (s *progressService) GetProgress(ctx context.Context, studentID uint) (dto.StudentProgressResponse, error) {
	cacheKey := fmt.Sprintf("progress:student:%d", studentID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.StudentProgressResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Uint("student_id", studentID).Msg("progress cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read progress cache")
		}
	}

	assignments, err := s.assignments.List(ctx)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	filter := repository.SubmissionFilter{StudentID: &studentID}
	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		return dto.StudentProgressResponse{}, err
	}

	response := s.buildResponse(assignments, submissions)

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress cache")
			}
		}
	}

	return response, nil
}

func (s *progressService) buildResponse(assignments []models.Assignment, submissions []models.Submission) dto.StudentProgressResponse {
	now := s.now()

	submissionByAssignment := make(map[uint]models.Submission, len(submissions))
	for _, submission := range submissions {
		submissionByAssignment[submission.AssignmentID] = submission
	}

	summary := dto.ProgressSummary{}
	pending := make([]dto.PendingAssignment, 0)
	var scoreTotal int

	for _, assignment := range assignments {
		summary.TotalAssignments++
		overdue := assignment.IsPastDue(now)

		if submission, submitted := submissionByAssignment[assignment.ID]; submitted {
			summary.Submitted++
			scoreTotal += submission.Score
			continue
		}

		summary.Pending++
		if overdue {
			summary.Overdue++
		}
		pending = append(pending, dto.PendingAssignment{
			AssignmentID:  assignment.ID,
			Title:         assignment.Title,
			DueDate:       assignment.DueDate,
			QuestionCount: len(assignment.Questions),
			Overdue:       overdue,
		})
	}

	if summary.Submitted > 0 {
		summary.AverageScore = float64(scoreTotal) / float64(summary.Submitted)
	}
	if summary.TotalAssignments > 0 {
		summary.CompletionRate = float64(summary.Submitted) / float64(summary.TotalAssignments) * 100
	}

	recent := make([]dto.QuizResult, 0, min(5, len(submissions)))
	for idx, submission := range submissions {
		if idx >= 5 {
			break
		}
		recent = append(recent, dto.QuizResult{
			SubmissionID: submission.ID,
			AssignmentID: submission.AssignmentID,
			Title:        submission.Assignment.Title,
			Score:        submission.Score,
			Feedback:     submission.Feedback,
			SubmittedAt:  submission.CreatedAt,
		})
	}

	return dto.StudentProgressResponse{
		Summary: summary,
		Pending: pending,
		Recent:  recent,
	}
}
