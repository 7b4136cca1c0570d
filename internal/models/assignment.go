package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Assignment is a gradable quiz made of multiple-choice questions, assigned to a
// class with a due date.
type Assignment struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"size:255;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	ClassID     uint         `gorm:"index" json:"class_id"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Questions   []Question   `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// Question is one multiple-choice entry within an assignment. Position fixes the
// numbering shown to students; grading compares option indices only.
type Question struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AssignmentID  uint           `gorm:"not null;index" json:"assignment_id"`
	Position      int            `gorm:"not null" json:"position"`
	Text          string         `gorm:"type:text;not null" json:"text"`
	Options       datatypes.JSON `gorm:"type:json" json:"-"`
	CorrectOption int            `gorm:"not null" json:"correct_option"`
	Explanation   string         `gorm:"type:text" json:"explanation"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// SetOptions serializes the option texts into the JSON storage column.
func (q *Question) SetOptions(options []string) {
	data, err := json.Marshal(options)
	if err != nil {
		q.Options = datatypes.JSON([]byte("[]"))
		return
	}
	q.Options = datatypes.JSON(data)
}

// OptionList deserializes the stored option texts into a Go slice.
func (q Question) OptionList() []string {
	if len(q.Options) == 0 {
		return nil
	}

	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil
	}

	return options
}

// HasValidKey reports whether the correct-option marker points at an existing option.
func (q Question) HasValidKey() bool {
	return q.CorrectOption >= 0 && q.CorrectOption < len(q.OptionList())
}
