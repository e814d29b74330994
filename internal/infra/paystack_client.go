package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

var ErrProviderRejected = errors.New("payment provider rejected the request")

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Channels    []string `json:"channels,omitempty"`
}

type Checkout struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// PaystackClient calls the Paystack REST API through a circuit breaker.
type PaystackClient struct {
	cfg     PaystackConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

func NewPaystackClient(cfg PaystackConfig, log *zap.Logger) *PaystackClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	settings := gobreaker.Settings{
		Name:        "paystack",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Rejections are the caller's problem, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProviderRejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &PaystackClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		log:     log,
	}
}

// CreateCustomer registers the customer and returns its customer code.
func (c *PaystackClient) CreateCustomer(ctx context.Context, email, firstName string) (string, error) {
	body := map[string]string{"email": email, "first_name": firstName}

	data, err := c.post(ctx, "/customer", body)
	if err != nil {
		return "", err
	}

	var customer struct {
		CustomerCode string `json:"customer_code"`
	}
	if err := json.Unmarshal(data, &customer); err != nil {
		return "", fmt.Errorf("decode customer: %w", err)
	}
	if customer.CustomerCode == "" {
		return "", fmt.Errorf("%w: empty customer code", ErrProviderRejected)
	}
	return customer.CustomerCode, nil
}

func (c *PaystackClient) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Checkout, error) {
	data, err := c.post(ctx, "/transaction/initialize", req)
	if err != nil {
		return nil, err
	}

	var checkout Checkout
	if err := json.Unmarshal(data, &checkout); err != nil {
		return nil, fmt.Errorf("decode checkout: %w", err)
	}
	if checkout.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: missing authorization url", ErrProviderRejected)
	}
	return &checkout, nil
}

func (c *PaystackClient) post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	raw, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("paystack %s: status %d", path, resp.StatusCode)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return respBody, fmt.Errorf("%w: status %d", ErrProviderRejected, resp.StatusCode)
		}
		return respBody, nil
	})
	if err != nil {
		c.log.Warn("paystack request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	var env paystackEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode paystack response: %w", err)
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", ErrProviderRejected, env.Message)
	}
	return env.Data, nil
}
