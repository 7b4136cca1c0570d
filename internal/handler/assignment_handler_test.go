package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/quizzq/quizzq-api/internal/dto"
)

func TestAssignmentEndpointHidesKeyFromStudents(t *testing.T) {
	app, db := setupQuizApp(t, "student")
	assignment := seedQuiz(t, db, 2)

	url := fmt.Sprintf("/api/v1/assignments/%d", assignment.ID)
	resp, err := app.Test(httptest.NewRequest("GET", url, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.NotContains(t, string(raw), "correct_option")
	require.NotContains(t, string(raw), "explanation")

	var body struct {
		Success bool                   `json:"success"`
		Data    dto.AssignmentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	require.True(t, body.Success)
	require.Len(t, body.Data.Questions, 2)
	require.Equal(t, []string{"A", "B", "C", "D"}, body.Data.Questions[0].Options)
}

func TestAssignmentListEndpoint(t *testing.T) {
	app, db := setupQuizApp(t, "student")
	seedQuiz(t, db, 2)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/assignments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                     `json:"success"`
		Data    []dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Len(t, body.Data, 1)
	require.Equal(t, "Fractions Quiz", body.Data[0].Title)
}

func TestAssignmentMissingReturnsNotFound(t *testing.T) {
	app, _ := setupQuizApp(t, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/assignments/4242", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestTeacherCreateAndGetIncludesKey(t *testing.T) {
	app, _ := setupQuizApp(t, "teacher")

	payload := dto.AssignmentCreateRequest{
		Title:   "Decimals Quiz",
		ClassID: 7,
		DueDate: time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		Questions: []dto.QuestionInput{
			{
				Text:          "What is 0.5 as a fraction?",
				Options:       []string{"1/2", "1/4", "2/3"},
				CorrectOption: intPtr(0),
				Explanation:   "0.5 equals one half.",
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/teacher/assignments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var created struct {
		Success bool                         `json:"success"`
		Data    dto.AssignmentDetailResponse `json:"data"`
		Message string                       `json:"message"`
	}
	decodeResponse(t, resp, &created)
	require.True(t, created.Success)
	require.Equal(t, "assignment created", created.Message)
	require.NotZero(t, created.Data.ID)

	url := fmt.Sprintf("/api/v1/teacher/assignments/%d", created.Data.ID)
	detailResp, err := app.Test(httptest.NewRequest("GET", url, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, detailResp.StatusCode)

	var detail struct {
		Data dto.AssignmentDetailResponse `json:"data"`
	}
	decodeResponse(t, detailResp, &detail)
	require.Len(t, detail.Data.Questions, 1)
	require.Equal(t, 0, detail.Data.Questions[0].CorrectOption)
	require.Equal(t, "0.5 equals one half.", detail.Data.Questions[0].Explanation)
}

func TestTeacherCreateRejectsInvalidKey(t *testing.T) {
	app, _ := setupQuizApp(t, "teacher")

	payload := dto.AssignmentCreateRequest{
		Title:   "Broken Quiz",
		ClassID: 7,
		DueDate: time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		Questions: []dto.QuestionInput{
			{
				Text:          "Pick one",
				Options:       []string{"A", "B"},
				CorrectOption: intPtr(5),
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/v1/teacher/assignments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTeacherRoutesForbiddenForStudents(t *testing.T) {
	app, _ := setupQuizApp(t, "student")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/teacher/assignments", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func intPtr(v int) *int { return &v }
