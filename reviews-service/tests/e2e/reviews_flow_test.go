//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"lemuel/reviews-service/internal/app/reviews/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// BaseURL - адрес запущенного reviews-service
	BaseURL = "http://localhost:8084"
)

// AuthToken - тестовый JWT токен пользователя
var AuthToken = "test-jwt-token"

// getAuthHeaders возвращает заголовки с авторизацией
func getAuthHeaders() http.Header {
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Authorization", "Bearer "+AuthToken)
	return headers
}

func doJSON(t *testing.T, client *http.Client, method, path string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, BaseURL+path, body)
	require.NoError(t, err)
	req.Header = getAuthHeaders()

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// TestFullReviewFlow проверяет полный жизненный цикл отзыва:
// создание, повторная попытка, выборка по товару, обновление, удаление.
func TestFullReviewFlow(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}
	productID := uuid.NewString()

	// Create
	resp := doJSON(t, client, http.MethodPost, "/reviews", entity.CreateReviewRequest{
		ProductID: productID,
		Rating:    4,
		Content:   "Good product, minor issues.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decodeBody[entity.Review](t, resp)
	reviewID := created.ID.Hex()

	defer func() {
		resp := doJSON(t, client, http.MethodDelete, "/reviews/"+reviewID, nil)
		resp.Body.Close()
	}()

	// Повторный отзыв на тот же товар отклоняется
	resp = doJSON(t, client, http.MethodPost, "/reviews", entity.CreateReviewRequest{
		ProductID: productID,
		Rating:    1,
		Content:   "Trying to post a second one.",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Выборка по товару со средней оценкой
	resp = doJSON(t, client, http.MethodGet, "/reviews/product/"+productID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	listing := decodeBody[entity.ProductReviewsResponse](t, resp)
	assert.Equal(t, 1, listing.Total)
	assert.InDelta(t, 4.0, listing.AverageRating, 0.001)

	// Update
	resp = doJSON(t, client, http.MethodPatch, "/reviews/"+reviewID, entity.UpdateReviewRequest{
		Rating:  5,
		Content: "Changed my mind, excellent product!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[entity.Review](t, resp)
	assert.Equal(t, 5, updated.Rating)

	// Delete
	resp = doJSON(t, client, http.MethodDelete, "/reviews/"+reviewID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// После удаления отзыв недоступен
	resp = doJSON(t, client, http.MethodGet, "/reviews/"+reviewID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestReviewValidation проверяет валидацию входных данных
func TestReviewValidation(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	// Оценка вне диапазона 1..5
	resp := doJSON(t, client, http.MethodPost, "/reviews", entity.CreateReviewRequest{
		ProductID: uuid.NewString(),
		Rating:    6,
		Content:   "Rating out of allowed range.",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Слишком короткий текст
	resp = doJSON(t, client, http.MethodPost, "/reviews", entity.CreateReviewRequest{
		ProductID: uuid.NewString(),
		Rating:    3,
		Content:   "short",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// TestReviewsRequireAuth проверяет что операции записи закрыты авторизацией
func TestReviewsRequireAuth(t *testing.T) {
	client := &http.Client{Timeout: 10 * time.Second}

	body, _ := json.Marshal(entity.CreateReviewRequest{
		ProductID: uuid.NewString(),
		Rating:    3,
		Content:   "Unauthenticated review attempt.",
	})

	req, err := http.NewRequest(http.MethodPost, BaseURL+"/reviews", bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
