package shipping

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/souq-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/souq-backend/pkg/errors"
	"github.com/angelmondragon/souq-backend/pkg/money"
)

const (
	ratesPath      = "/v1/rates"
	defaultTimeout = 10 * time.Second
)

var errBaseURLRequired = errors.New("shipping provider base url is required")

// QuoteRequest describes a parcel to price.
type QuoteRequest struct {
	Country    string          `json:"country"`
	City       string          `json:"city"`
	PostalCode string          `json:"postal_code,omitempty"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	ItemCount  int             `json:"item_count"`
}

// Rate is one priced shipping option.
type Rate struct {
	MethodID      string          `json:"method_id"`
	Carrier       string          `json:"carrier"`
	Service       string          `json:"service"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      enums.Currency  `json:"currency"`
	EstimatedDays int             `json:"estimated_days"`
}

type ratesResponse struct {
	Rates []Rate `json:"rates"`
}

type providerError struct {
	Message string `json:"message"`
}

// Client queries the rate-quote provider.
type Client struct {
	http *resty.Client
}

// Option configures optional client behavior.
type Option func(*resty.Client)

// WithTimeout overrides the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *resty.Client) {
		if timeout > 0 {
			c.SetTimeout(timeout)
		}
	}
}

// WithRetries enables resty retries on transport errors and 5xx responses.
func WithRetries(count int) Option {
	return func(c *resty.Client) {
		if count <= 0 {
			return
		}
		c.SetRetryCount(count).
			SetRetryWaitTime(100 * time.Millisecond).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				return err != nil || (resp != nil && resp.StatusCode() >= 500)
			})
	}
}

// NewClient builds a provider client. apiKey may be empty for unauthenticated sandboxes.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errBaseURLRequired
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(defaultTimeout).
		SetHeader("Accept", "application/json")
	if key := strings.TrimSpace(apiKey); key != "" {
		rc.SetAuthToken(key)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rc)
		}
	}
	return &Client{http: rc}, nil
}

// Quote returns the provider's rates sorted by amount, then method id.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) ([]Rate, error) {
	if c == nil || c.http == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if err := validateQuote(&req); err != nil {
		return nil, err
	}

	var body ratesResponse
	var failure providerError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&body).
		SetError(&failure).
		Post(ratesPath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "shipping quote request failed")
	}
	if resp.IsError() {
		msg := strings.TrimSpace(failure.Message)
		if msg == "" {
			msg = resp.Status()
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("shipping provider rejected quote: %s", msg)).
			WithDetails(map[string]any{"status": resp.StatusCode()})
	}

	rates := make([]Rate, 0, len(body.Rates))
	for _, rate := range body.Rates {
		if strings.TrimSpace(rate.MethodID) == "" {
			continue
		}
		rate.Amount = money.Round(rate.Amount)
		if rate.Currency == "" {
			rate.Currency = enums.DefaultCurrency
		}
		rates = append(rates, rate)
	}
	sort.SliceStable(rates, func(i, j int) bool {
		if !rates[i].Amount.Equal(rates[j].Amount) {
			return rates[i].Amount.LessThan(rates[j].Amount)
		}
		return rates[i].MethodID < rates[j].MethodID
	})
	return rates, nil
}

func validateQuote(req *QuoteRequest) error {
	req.Country = strings.TrimSpace(req.Country)
	req.City = strings.TrimSpace(req.City)
	req.PostalCode = strings.TrimSpace(req.PostalCode)

	missing := []string{}
	if req.Country == "" {
		missing = append(missing, "country")
	}
	if req.City == "" {
		missing = append(missing, "city")
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "destination is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	if req.ItemCount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "item_count must be positive")
	}
	if req.WeightKg.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "weight_kg must not be negative")
	}
	return nil
}
