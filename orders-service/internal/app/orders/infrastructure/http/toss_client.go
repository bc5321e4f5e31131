package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TossError ошибка, возвращенная API Toss Payments.
// Код и сообщение прокидываются клиенту без изменений.
type TossError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *TossError) Error() string {
	return fmt.Sprintf("toss confirm failed (%d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// TossClient клиент подтверждения платежей Toss Payments.
// Аутентификация Basic: base64(secretKey + ":").
type TossClient struct {
	confirmURL string
	secretKey  string
	httpClient *http.Client
}

// NewTossClient создает новый клиент Toss Payments
func NewTossClient(confirmURL, secretKey string) *TossClient {
	return &TossClient{
		confirmURL: confirmURL,
		secretKey:  secretKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type tossConfirmBody struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Confirm вызывает POST /v1/payments/confirm.
// Ответ 4xx возвращается как *TossError с телом ошибки Toss.
func (c *TossClient) Confirm(ctx context.Context, paymentKey, tossOrderID string, amount int64) error {
	body, err := json.Marshal(tossConfirmBody{
		PaymentKey: paymentKey,
		OrderID:    tossOrderID,
		Amount:     amount,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal toss confirm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.confirmURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create toss confirm request: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	req.Header.Set("Authorization", "Basic "+encoded)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call toss confirm api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	tossErr := &TossError{StatusCode: resp.StatusCode}
	respBody, readErr := io.ReadAll(resp.Body)
	if readErr != nil || json.Unmarshal(respBody, tossErr) != nil {
		tossErr.Code = "UNKNOWN"
		tossErr.Message = string(respBody)
	}

	return tossErr
}
