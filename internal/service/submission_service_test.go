package service

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/grading"
	"github.com/quizzq/quizzq-api/internal/models"
	"github.com/quizzq/quizzq-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	questions   map[uint]models.Question
	nextID      uint

	failCreateWithDuplicate bool
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{
		submissions: make(map[uint]models.Submission),
		questions:   make(map[uint]models.Question),
		nextID:      1,
	}
}

func (m *memorySubmissionRepo) registerQuestions(questions []models.Question) {
	for _, question := range questions {
		m.questions[question.ID] = question
	}
}

func (m *memorySubmissionRepo) hydrate(submission models.Submission) models.Submission {
	answers := make([]models.Answer, len(submission.Answers))
	copy(answers, submission.Answers)
	for i := range answers {
		if question, ok := m.questions[answers[i].QuestionID]; ok {
			answers[i].Question = question
		}
	}
	submission.Answers = answers
	return submission
}

func (m *memorySubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	results := make([]models.Submission, 0, len(m.submissions))
	for _, submission := range m.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		results = append(results, m.hydrate(submission))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (m *memorySubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return m.hydrate(submission), nil
}

func (m *memorySubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return m.hydrate(submission), nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memorySubmissionRepo) CreateWithAnswers(ctx context.Context, submission *models.Submission) error {
	if m.failCreateWithDuplicate {
		return gorm.ErrDuplicatedKey
	}
	for _, existing := range m.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	for i := range submission.Answers {
		submission.Answers[i].SubmissionID = submission.ID
	}
	m.submissions[submission.ID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(ctx context.Context, submission *models.Submission) error {
	stored, ok := m.submissions[submission.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	updated := *submission
	// Save never touches associated rows.
	updated.Answers = stored.Answers
	m.submissions[submission.ID] = updated
	return nil
}

func fourQuestionAssignment() models.Assignment {
	assignment := models.Assignment{
		ID:      1,
		Title:   "Fractions",
		ClassID: 7,
		DueDate: time.Now().Add(48 * time.Hour),
	}
	for i := 1; i <= 4; i++ {
		question := models.Question{
			ID:            uint(i),
			AssignmentID:  assignment.ID,
			Position:      i,
			Text:          "Question",
			CorrectOption: 1,
			Explanation:   "Because option B.",
		}
		question.SetOptions([]string{"A", "B", "C", "D"})
		assignment.Questions = append(assignment.Questions, question)
	}
	return assignment
}

func intPtr(v int) *int { return &v }

func answerSet(selections map[uint]int) dto.SubmissionCreateRequest {
	ids := make([]uint, 0, len(selections))
	for id := range selections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	payload := dto.SubmissionCreateRequest{}
	for _, id := range ids {
		payload.Answers = append(payload.Answers, dto.SubmissionAnswerInput{
			QuestionID:     id,
			SelectedOption: intPtr(selections[id]),
		})
	}
	return payload
}

func newSubmissionFixture(t *testing.T) (SubmissionService, *memorySubmissionRepo, *memoryAssignmentRepo) {
	t.Helper()
	assignmentRepo := newMemoryAssignmentRepo()
	submissionRepo := newMemorySubmissionRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := NewSubmissionService(submissionRepo, assignmentRepo, validate, testLogger())
	return svc, submissionRepo, assignmentRepo
}

func TestSubmitGradesAndPersists(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	payload := answerSet(map[uint]int{1: 1, 2: 1, 3: 1, 4: 0})

	result, err := svc.Submit(context.Background(), CallerIdentity{ID: 10, Role: "student"}, assignment.ID, payload)
	require.NoError(t, err)
	require.Equal(t, 75, result.Score)
	require.Equal(t, uint(10), result.StudentID)
	require.Len(t, result.Answers, 4)

	correctness := make([]bool, 0, 4)
	for _, answer := range result.Answers {
		correctness = append(correctness, answer.IsCorrect)
	}
	require.Equal(t, []bool{true, true, true, false}, correctness)
	require.Equal(t, "Because option B.", result.Answers[0].Explanation)

	stored, err := submissionRepo.GetByAssignmentAndStudent(context.Background(), assignment.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 75, stored.Score)
	require.Len(t, stored.Answers, 4)
}

func TestSubmitIncompleteIsRejectedWithoutPersisting(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	payload := answerSet(map[uint]int{1: 1, 3: 0})

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, payload)
	require.ErrorIs(t, err, grading.ErrIncompleteSubmission)

	var incomplete *grading.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	require.Equal(t, []uint{2, 4}, incomplete.MissingQuestionIDs)

	_, err = submissionRepo.GetByAssignmentAndStudent(context.Background(), assignment.ID, 10)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmitDuplicatePreservesOriginal(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	first, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, answerSet(map[uint]int{1: 1, 2: 1, 3: 1, 4: 1}))
	require.NoError(t, err)
	require.Equal(t, 100, first.Score)

	_, err = svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, answerSet(map[uint]int{1: 0, 2: 0, 3: 0, 4: 0}))
	require.ErrorIs(t, err, ErrDuplicateSubmission)

	stored, err := submissionRepo.GetByAssignmentAndStudent(context.Background(), assignment.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 100, stored.Score)
}

func TestSubmitDuplicateRaceMapsToConflict(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)
	submissionRepo.failCreateWithDuplicate = true

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, answerSet(map[uint]int{1: 1, 2: 1, 3: 1, 4: 1}))
	require.ErrorIs(t, err, ErrDuplicateSubmission)
}

func TestSubmitRejectsUnknownQuestion(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	payload := answerSet(map[uint]int{1: 1, 2: 1, 3: 1, 99: 0})

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, payload)
	require.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestSubmitRejectsOutOfRangeOption(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	payload := answerSet(map[uint]int{1: 1, 2: 1, 3: 1, 4: 9})

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, payload)
	require.ErrorIs(t, err, ErrInvalidOption)

	_, err = submissionRepo.GetByAssignmentAndStudent(context.Background(), assignment.ID, 10)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubmitRejectsDuplicateAnswerForSameQuestion(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	payload := dto.SubmissionCreateRequest{
		Answers: []dto.SubmissionAnswerInput{
			{QuestionID: 1, SelectedOption: intPtr(1)},
			{QuestionID: 1, SelectedOption: intPtr(2)},
			{QuestionID: 2, SelectedOption: intPtr(1)},
			{QuestionID: 3, SelectedOption: intPtr(1)},
			{QuestionID: 4, SelectedOption: intPtr(1)},
		},
	}

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, assignment.ID, payload)
	require.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestSubmitUnknownAssignment(t *testing.T) {
	svc, _, _ := newSubmissionFixture(t)

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, 42, answerSet(map[uint]int{1: 0}))
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestSubmitAssignmentWithoutQuestionsIsMalformed(t *testing.T) {
	svc, _, assignmentRepo := newSubmissionFixture(t)

	assignmentRepo.put(models.Assignment{ID: 5, Title: "Empty", DueDate: time.Now().Add(time.Hour)})

	_, err := svc.Submit(context.Background(), CallerIdentity{ID: 10}, 5, answerSet(map[uint]int{1: 0}))
	require.ErrorIs(t, err, grading.ErrMalformedAssignment)
}

func TestGetOwnReturnsSnapshotAfterKeyEdit(t *testing.T) {
	svc, submissionRepo, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)
	submissionRepo.registerQuestions(assignment.Questions)

	caller := CallerIdentity{ID: 10}
	graded, err := svc.Submit(context.Background(), caller, assignment.ID, answerSet(map[uint]int{1: 1, 2: 1, 3: 1, 4: 0}))
	require.NoError(t, err)
	require.Equal(t, 75, graded.Score)

	// Changing the key after grading must not rewrite stored correctness.
	for i := range assignment.Questions {
		assignment.Questions[i].CorrectOption = 3
	}
	assignmentRepo.put(assignment)

	reloaded, err := svc.GetOwn(context.Background(), caller, assignment.ID)
	require.NoError(t, err)
	require.Equal(t, 75, reloaded.Score)
	require.True(t, reloaded.Answers[0].IsCorrect)
	require.False(t, reloaded.Answers[3].IsCorrect)
}

func TestGetOwnMissingSubmission(t *testing.T) {
	svc, _, assignmentRepo := newSubmissionFixture(t)

	assignment := fourQuestionAssignment()
	assignmentRepo.put(assignment)

	_, err := svc.GetOwn(context.Background(), CallerIdentity{ID: 10}, assignment.ID)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
