package dto

import (
	"sort"
	"time"

	"github.com/quizzq/quizzq-api/internal/models"
)

// SubmissionAnswerInput is one selected option in a submission payload. The
// selected option is a pointer so that index 0 survives required validation.
type SubmissionAnswerInput struct {
	QuestionID     uint `json:"question_id" validate:"required,gt=0"`
	SelectedOption *int `json:"selected_option" validate:"required,gte=0"`
}

// SubmissionCreateRequest is the body of the submit endpoint.
type SubmissionCreateRequest struct {
	Answers []SubmissionAnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// ReviewRequest lets a teacher attach feedback and optionally override the score.
type ReviewRequest struct {
	Feedback      string `json:"feedback" validate:"omitempty,min=3"`
	ScoreOverride *int   `json:"score_override" validate:"omitempty,gte=0,lte=100"`
}

// AnswerResponse is the graded snapshot for one question, returned after
// submission. Explanations are only revealed here, never on the pre-submission
// read path.
//
// IsCorrect and the score are frozen at grading time. CorrectOption and
// Explanation read from the question's current state, so after a key edit a
// re-read may show is_correct alongside a correct_option that no longer
// matches the selection.
type AnswerResponse struct {
	QuestionID     uint   `json:"question_id"`
	Position       int    `json:"position"`
	SelectedOption int    `json:"selected_option"`
	CorrectOption  int    `json:"correct_option"`
	IsCorrect      bool   `json:"is_correct"`
	Explanation    string `json:"explanation,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing a graded submission.
type SubmissionResponse struct {
	ID           uint             `json:"id"`
	AssignmentID uint             `json:"assignment_id"`
	StudentID    uint             `json:"student_id"`
	Score        int              `json:"score"`
	Feedback     string           `json:"feedback"`
	ReviewedBy   *uint            `json:"reviewed_by"`
	ReviewedAt   *time.Time       `json:"reviewed_at"`
	Answers      []AnswerResponse `json:"answers"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Assignment   AssignmentLite   `json:"assignment"`
}

// NewSubmissionResponse converts a Submission model into a DTO. Answers are
// ordered by question position to match the numbering students saw.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		StudentID:    model.StudentID,
		Score:        model.Score,
		Feedback:     model.Feedback,
		ReviewedBy:   model.ReviewedBy,
		ReviewedAt:   model.ReviewedAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:      model.Assignment.ID,
			Title:   model.Assignment.Title,
			DueDate: model.Assignment.DueDate,
		}
	}

	if len(model.Answers) > 0 {
		answers := make([]AnswerResponse, 0, len(model.Answers))
		for _, answer := range model.Answers {
			answers = append(answers, AnswerResponse{
				QuestionID:     answer.QuestionID,
				Position:       answer.Question.Position,
				SelectedOption: answer.SelectedOption,
				CorrectOption:  answer.Question.CorrectOption,
				IsCorrect:      answer.IsCorrect,
				Explanation:    answer.Question.Explanation,
			})
		}
		sort.SliceStable(answers, func(i, j int) bool {
			return answers[i].Position < answers[j].Position
		})
		response.Answers = answers
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
