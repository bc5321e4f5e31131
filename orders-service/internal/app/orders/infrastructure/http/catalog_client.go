package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lemuel/orders-service/internal/app/orders/entity"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound товар отсутствует в каталоге
	ErrProductNotFound = fmt.Errorf("product not found in catalog")
	// ErrInsufficientStock каталог отклонил списание остатка
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
)

// CatalogClient клиент Catalog Service.
// Чтение товара публично; списание остатка идет через служебный токен,
// общий секрет между сервисами.
type CatalogClient struct {
	baseURL      string
	serviceToken string
	httpClient   *http.Client
}

// NewCatalogClient создает новый клиент Catalog Service
func NewCatalogClient(baseURL, serviceToken string) *CatalogClient {
	return &CatalogClient{
		baseURL:      baseURL,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetProduct получает товар для проверки цены и доступности
func (c *CatalogClient) GetProduct(ctx context.Context, productID uuid.UUID) (*entity.Product, error) {
	url := fmt.Sprintf("%s/api/products/%s", c.baseURL, productID.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}

	var product entity.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product response: %w", err)
	}

	return &product, nil
}

type stockUpdateBody struct {
	Quantity   int    `json:"quantity"`
	ChangeType string `json:"change_type"`
}

// DecreaseStock списывает остаток товара при оформлении заказа
func (c *CatalogClient) DecreaseStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	url := fmt.Sprintf("%s/api/products/%s/stock", c.baseURL, productID.String())

	body, err := json.Marshal(stockUpdateBody{Quantity: quantity, ChangeType: "DECREASE"})
	if err != nil {
		return fmt.Errorf("failed to marshal stock request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrProductNotFound
	case http.StatusConflict:
		return ErrInsufficientStock
	default:
		return fmt.Errorf("catalog service returned status %d", resp.StatusCode)
	}
}
