package pricingservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент для работы с PricingService
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента PricingService
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// GetQuote получает снапшот цены для запрашиваемого бронирования
func (c *Client) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	url := fmt.Sprintf("%s/internal/quotes", c.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Продолжаем обработку
	case http.StatusNotFound:
		return nil, ErrQuoteNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}

	var quote Quote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &quote, nil
}

// GetQuoteWithGracefulDegradation получает цену с graceful degradation
// При недоступности PricingService возвращает ErrServiceDegraded - вызывающая
// сторона может снять снапшот с базовой цены ресурса
func (c *Client) GetQuoteWithGracefulDegradation(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	quote, err := c.GetQuote(ctx, req)
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return nil, err
		}

		c.log.Error("PricingService unavailable, applying graceful degradation for resource=%s/%d: %v",
			req.ResourceType, req.ResourceID, err)
		return nil, fmt.Errorf("%w: resource=%s/%d, error=%v", ErrServiceDegraded, req.ResourceType, req.ResourceID, err)
	}

	return quote, nil
}
