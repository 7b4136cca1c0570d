package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/models"
	"github.com/quizzq/quizzq-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrInvalidQuestion indicates an authoring payload carries a question whose
// correct-option marker does not point at one of its options.
var ErrInvalidQuestion = errors.New("question has an invalid correct option")

// AssignmentService exposes quiz assignment use cases. Student-facing reads go
// through DTOs that strip correct-option markers and explanations; the
// authoring methods return the full key and must stay behind the teacher role.
type AssignmentService interface {
	List(ctx context.Context) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	ListForTeacher(ctx context.Context, payload dto.AssignmentListRequest) (dto.AssignmentListResponse, error)
	GetForTeacher(ctx context.Context, id uint) (dto.AssignmentDetailResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentDetailResponse, error)
	Delete(ctx context.Context, id uint) error
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	validator *validator.Validate
	policy    *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("p", "strong", "em", "sub", "sup", "code", "ul", "ol", "li", "br")
	return &assignmentService{
		repo:      repo,
		validator: validate,
		policy:    policy,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.repo.GetWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) ListForTeacher(ctx context.Context, payload dto.AssignmentListRequest) (dto.AssignmentListResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentListResponse{}, err
	}

	page := payload.Page
	if page <= 0 {
		page = 1
	}
	pageSize := payload.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	assignments, total, err := s.repo.ListWithFilter(ctx, repository.AssignmentFilter{
		ClassID:  payload.ClassID,
		Search:   payload.Search,
		Sort:     payload.Sort,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return dto.AssignmentListResponse{}, err
	}

	return dto.AssignmentListResponse{
		Items: dto.NewAssignmentResponseSlice(assignments),
		Pagination: dto.Pagination{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
		},
		Search: payload.Search,
	}, nil
}

func (s *assignmentService) GetForTeacher(ctx context.Context, id uint) (dto.AssignmentDetailResponse, error) {
	assignment, err := s.repo.GetWithQuestions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentDetailResponse{}, ErrAssignmentNotFound
		}

		return dto.AssignmentDetailResponse{}, err
	}

	return dto.NewAssignmentDetailResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentDetailResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentDetailResponse{}, err
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentDetailResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	if !dueDate.After(s.now()) {
		return dto.AssignmentDetailResponse{}, fmt.Errorf("due date must be in the future")
	}

	assignment := models.Assignment{
		Title:       payload.Title,
		Description: payload.Description,
		ClassID:     payload.ClassID,
		DueDate:     dueDate,
		Questions:   make([]models.Question, 0, len(payload.Questions)),
	}

	for index, input := range payload.Questions {
		if *input.CorrectOption >= len(input.Options) {
			return dto.AssignmentDetailResponse{}, fmt.Errorf("%w: question %d", ErrInvalidQuestion, index+1)
		}

		question := models.Question{
			Position:      index + 1,
			Text:          s.policy.Sanitize(input.Text),
			CorrectOption: *input.CorrectOption,
			Explanation:   s.policy.Sanitize(input.Explanation),
		}
		question.SetOptions(input.Options)
		assignment.Questions = append(assignment.Questions, question)
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentDetailResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Int("questions", len(assignment.Questions)).
		Msg("assignment created")

	return dto.NewAssignmentDetailResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}
