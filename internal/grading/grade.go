// Package grading implements the pure scoring step of the quiz submission flow.
// It never touches storage; callers load the question key and persist the result.
package grading

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrMalformedAssignment indicates the question key itself is unusable: the
// assignment has no questions, or a correct-option marker points outside the
// option range. This is a data-setup bug upstream, not a client error.
var ErrMalformedAssignment = errors.New("malformed assignment")

// ErrIncompleteSubmission indicates at least one question was left unanswered.
// Use errors.As with *IncompleteError to recover the missing question IDs.
var ErrIncompleteSubmission = errors.New("incomplete submission")

// IncompleteError carries the identifiers of the unanswered questions so the
// client can prompt for completion.
type IncompleteError struct {
	MissingQuestionIDs []uint
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete submission: %d question(s) unanswered", len(e.MissingQuestionIDs))
}

// Unwrap allows errors.Is(err, ErrIncompleteSubmission).
func (e *IncompleteError) Unwrap() error {
	return ErrIncompleteSubmission
}

// Question is the minimal view of a question needed for grading.
type Question struct {
	ID            uint
	CorrectOption int
	OptionCount   int
}

// AnswerResult is the graded snapshot for one question.
type AnswerResult struct {
	QuestionID     uint
	SelectedOption int
	Correct        bool
}

// Result is the outcome of grading a complete answer set. Answers follow the
// order of the question list passed to Grade.
type Result struct {
	Score   int
	Correct int
	Total   int
	Answers []AnswerResult
}

// Grade checks a student's selected options against the assignment key and
// computes the aggregate percentage score.
//
// Correctness is exact equality of option indices; there is no partial credit.
// The score is (correct / total) * 100 rounded half up to the nearest whole
// percent, so 1 of 8 correct grades to 13, not 12.
//
// Every question must have an entry in selected; otherwise Grade returns an
// *IncompleteError and performs no partial computation. A key with zero
// questions or an out-of-range correct option yields ErrMalformedAssignment.
func Grade(questions []Question, selected map[uint]int) (Result, error) {
	if len(questions) == 0 {
		return Result{}, fmt.Errorf("%w: assignment has no questions", ErrMalformedAssignment)
	}

	for _, question := range questions {
		if question.OptionCount <= 0 || question.CorrectOption < 0 || question.CorrectOption >= question.OptionCount {
			return Result{}, fmt.Errorf("%w: question %d has an invalid correct-option marker", ErrMalformedAssignment, question.ID)
		}
	}

	var missing []uint
	for _, question := range questions {
		if _, ok := selected[question.ID]; !ok {
			missing = append(missing, question.ID)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return Result{}, &IncompleteError{MissingQuestionIDs: missing}
	}

	result := Result{
		Total:   len(questions),
		Answers: make([]AnswerResult, 0, len(questions)),
	}

	for _, question := range questions {
		choice := selected[question.ID]
		correct := choice == question.CorrectOption
		if correct {
			result.Correct++
		}
		result.Answers = append(result.Answers, AnswerResult{
			QuestionID:     question.ID,
			SelectedOption: choice,
			Correct:        correct,
		})
	}

	result.Score = roundHalfUp(float64(result.Correct) / float64(result.Total) * 100)

	return result, nil
}

func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}
