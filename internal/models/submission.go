package models

import "time"

// Submission records one student's single graded attempt at an assignment. The
// unique index on (assignment_id, student_id) is the authoritative duplicate
// guard; the application-level existence check is only a fast path.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"assignment_id"`
	StudentID    uint       `gorm:"not null;uniqueIndex:idx_submissions_assignment_student" json:"student_id"`
	Score        int        `gorm:"not null" json:"score"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	ReviewedBy   *uint      `json:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Answers      []Answer   `gorm:"foreignKey:SubmissionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"answers"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student      Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

// IsReviewed reports whether a teacher has attached feedback or overridden the score.
func (s Submission) IsReviewed() bool {
	return s.ReviewedBy != nil
}

// Answer stores the graded snapshot for one question: the option the student
// picked and whether it matched the key at grading time. The flag is never
// recomputed, even if the question's key is edited later.
type Answer struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubmissionID   uint      `gorm:"not null;index" json:"submission_id"`
	QuestionID     uint      `gorm:"not null" json:"question_id"`
	SelectedOption int       `gorm:"not null" json:"selected_option"`
	IsCorrect      bool      `gorm:"not null" json:"is_correct"`
	CreatedAt      time.Time `json:"created_at"`
	Question       Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
