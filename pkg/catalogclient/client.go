package catalogclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client notifies the catalog service about user-level changes that must
// cascade onto that user's product listings.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(catalogServiceURL string) *Client {
	return &Client{
		baseURL: catalogServiceURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type availabilityRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// MarkUserProductsUnavailable asks the catalog to flip every listing owned by
// the user to unavailable. The idempotency key makes redelivery safe.
func (c *Client) MarkUserProductsUnavailable(ctx context.Context, userID uuid.UUID, idempotencyKey string) error {
	body, err := json.Marshal(availabilityRequest{UserID: userID})
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPatch,
		c.baseURL+"/products/availability",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("availability update failed with status: %d", resp.StatusCode)
	}

	return nil
}
