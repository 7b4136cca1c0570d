package dto

import (
	"time"

	"github.com/quizzq/quizzq-api/internal/models"
)

// QuestionInput describes one multiple-choice question in an authoring payload.
type QuestionInput struct {
	Text          string   `json:"text" validate:"required,min=3"`
	Options       []string `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectOption *int     `json:"correct_option" validate:"required,gte=0"`
	Explanation   string   `json:"explanation"`
}

// AssignmentCreateRequest is the teacher-facing payload for creating a quiz.
type AssignmentCreateRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=255"`
	Description string          `json:"description"`
	ClassID     uint            `json:"class_id" validate:"required,gt=0"`
	DueDate     string          `json:"due_date" validate:"required"`
	Questions   []QuestionInput `json:"questions" validate:"required,min=1,dive"`
}

// AssignmentListRequest describes query options for the authoring list endpoint.
type AssignmentListRequest struct {
	ClassID  *uint  `query:"class_id"`
	Search   string `query:"search"`
	Sort     string `query:"sort"`
	Page     int    `query:"page" validate:"omitempty,gte=1"`
	PageSize int    `query:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// QuestionView is the student-safe projection of a question. It deliberately
// carries neither the correct-option marker nor the explanation; those are only
// revealed on the submission response, after grading.
type QuestionView struct {
	ID       uint     `json:"id"`
	Position int      `json:"position"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
}

// QuestionDetail is the authoring projection, answer key included.
type QuestionDetail struct {
	ID            uint     `json:"id"`
	Position      int      `json:"position"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

// AssignmentResponse is returned on student-facing read paths.
type AssignmentResponse struct {
	ID            uint           `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	ClassID       uint           `json:"class_id"`
	DueDate       time.Time      `json:"due_date"`
	QuestionCount int            `json:"question_count"`
	Questions     []QuestionView `json:"questions,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// AssignmentDetailResponse is returned on teacher-facing paths.
type AssignmentDetailResponse struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ClassID     uint             `json:"class_id"`
	DueDate     time.Time        `json:"due_date"`
	Questions   []QuestionDetail `json:"questions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AssignmentListResponse wraps a filtered authoring listing.
type AssignmentListResponse struct {
	Items      []AssignmentResponse `json:"items"`
	Pagination Pagination           `json:"pagination"`
	Search     string               `json:"search,omitempty"`
}

// Pagination reports listing metadata.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID      uint      `json:"id"`
	Title   string    `json:"title"`
	DueDate time.Time `json:"due_date"`
}

// NewAssignmentResponse converts a model into the student-safe DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	response := AssignmentResponse{
		ID:            model.ID,
		Title:         model.Title,
		Description:   model.Description,
		ClassID:       model.ClassID,
		DueDate:       model.DueDate,
		QuestionCount: len(model.Questions),
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}

	if len(model.Questions) > 0 {
		questions := make([]QuestionView, 0, len(model.Questions))
		for _, question := range model.Questions {
			questions = append(questions, QuestionView{
				ID:       question.ID,
				Position: question.Position,
				Text:     question.Text,
				Options:  question.OptionList(),
			})
		}
		response.Questions = questions
	}

	return response
}

// NewAssignmentResponseSlice converts assignment models into student-safe DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}

// NewAssignmentDetailResponse converts a model into the authoring DTO.
func NewAssignmentDetailResponse(model models.Assignment) AssignmentDetailResponse {
	questions := make([]QuestionDetail, 0, len(model.Questions))
	for _, question := range model.Questions {
		questions = append(questions, QuestionDetail{
			ID:            question.ID,
			Position:      question.Position,
			Text:          question.Text,
			Options:       question.OptionList(),
			CorrectOption: question.CorrectOption,
			Explanation:   question.Explanation,
		})
	}

	return AssignmentDetailResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		ClassID:     model.ClassID,
		DueDate:     model.DueDate,
		Questions:   questions,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}
