package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/quizzq/quizzq-api/internal/dto"
	"github.com/quizzq/quizzq-api/internal/handler"
	"github.com/quizzq/quizzq-api/internal/repository"
	"github.com/quizzq/quizzq-api/internal/service"
)

type stubSubmissionService struct {
	response dto.SubmissionResponse
}

func (s stubSubmissionService) Submit(context.Context, service.CallerIdentity, uint, dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) GetOwn(context.Context, service.CallerIdentity, uint) (dto.SubmissionResponse, error) {
	return s.response, nil
}

func (s stubSubmissionService) List(context.Context, repository.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	return []dto.SubmissionResponse{s.response}, nil
}

func TestSubmissionResponseContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "submission.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	reviewedBy := uint(4)
	response := dto.SubmissionResponse{
		ID:           55,
		AssignmentID: 10,
		StudentID:    1,
		Score:        75,
		Feedback:     "Revisit the last question.",
		ReviewedBy:   &reviewedBy,
		ReviewedAt:   &now,
		CreatedAt:    now.Add(-time.Hour),
		UpdatedAt:    now,
		Assignment: dto.AssignmentLite{
			ID:      10,
			Title:   "Fractions Quiz",
			DueDate: now.Add(24 * time.Hour),
		},
		Answers: []dto.AnswerResponse{
			{QuestionID: 1, Position: 1, SelectedOption: 1, CorrectOption: 1, IsCorrect: true, Explanation: "Convert to quarters."},
			{QuestionID: 2, Position: 2, SelectedOption: 0, CorrectOption: 2, IsCorrect: false},
		},
	}

	svc := stubSubmissionService{response: response}
	submissionHandler := handler.NewSubmissionHandler(svc, zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/assignments", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "student")
		return c.Next()
	})
	submissionHandler.Register(group, nil)

	payload := []byte(`{"answers":[{"question_id":1,"selected_option":1},{"question_id":2,"selected_option":0}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/10/submissions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var decoded interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.NoError(t, schema.Validate(decoded))
}
