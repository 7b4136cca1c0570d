package dto

import "time"

// ProgressSummary aggregates a student's quiz activity.
type ProgressSummary struct {
	TotalAssignments int     `json:"total_assignments"`
	Submitted        int     `json:"submitted"`
	Pending          int     `json:"pending"`
	Overdue          int     `json:"overdue"`
	AverageScore     float64 `json:"average_score"`
	CompletionRate   float64 `json:"completion_rate"`
}

// PendingAssignment is a quiz the student has not yet taken.
type PendingAssignment struct {
	AssignmentID  uint      `json:"assignment_id"`
	Title         string    `json:"title"`
	DueDate       time.Time `json:"due_date"`
	QuestionCount int       `json:"question_count"`
	Overdue       bool      `json:"overdue"`
}

// QuizResult summarizes one graded submission for the progress view.
type QuizResult struct {
	SubmissionID uint      `json:"submission_id"`
	AssignmentID uint      `json:"assignment_id"`
	Title        string    `json:"title"`
	Score        int       `json:"score"`
	Feedback     string    `json:"feedback"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// StudentProgressResponse is the payload of the student progress endpoint.
type StudentProgressResponse struct {
	Summary ProgressSummary     `json:"summary"`
	Pending []PendingAssignment `json:"pending"`
	Recent  []QuizResult        `json:"recent"`
}
