package insuranceservice

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

// Client клиент сервиса проверки страховых полисов
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// VerifyEligibility проверяет, действует ли полис на дату приема
func (c *Client) VerifyEligibility(ctx context.Context, req EligibilityRequest) (*EligibilityResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/eligibility", bytes.NewReader(body))
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
	case http.StatusNotFound:
		return nil, ErrMemberNotFound
	default:
		var errResp ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrInvalidResponse, resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var result EligibilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &result, nil
}

// VerifyEligibilityWithGracefulDegradation проверяет полис с graceful degradation
// При недоступности сервиса возвращает ErrServiceDegraded, запись на прием при этом не отменяется
func (c *Client) VerifyEligibilityWithGracefulDegradation(ctx context.Context, req EligibilityRequest) (*EligibilityResponse, error) {
	result, err := c.VerifyEligibility(ctx, req)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			c.log.Warn("Insurance member not found (insurer=%s)", req.InsuranceCompany)
			return nil, err
		}

		c.log.Error("InsuranceService unavailable, applying graceful degradation (insurer=%s): %v", req.InsuranceCompany, err)
		return nil, fmt.Errorf("%w: %v", ErrServiceDegraded, err)
	}

	c.log.Info("Insurance eligibility checked (insurer=%s, eligible=%t)", req.InsuranceCompany, result.Eligible)
	return result, nil
}
