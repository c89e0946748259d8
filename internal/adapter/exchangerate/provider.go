package exchangerate

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"family-budget-service/internal/entity"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://api.exchangerate.host"
	defaultTimeout = 5 * time.Second
)

type Client struct {
	client *resty.Client
	logger *logrus.Logger
}

var _ RateProvider = (*Client)(nil)

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		client: client,
		logger: logger,
	}
}

func (c *Client) FetchRate(ctx context.Context, base, target entity.CurrencyCode) (float64, error) {
	c.logger.Debugf("Fetching rate from provider: %s -> %s", base, target)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("base", string(base)).
		SetQueryParam("symbols", string(target)).
		Get("/latest")
	if err != nil {
		c.logger.WithError(err).Warnf("Provider request failed for %s/%s", base, target)
		return 0, fmt.Errorf("fetch rate: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.Warnf("Provider returned status %d for %s/%s", resp.StatusCode(), base, target)
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	result := gjson.GetBytes(resp.Body(), "rates."+string(target))
	if !result.Exists() {
		c.logger.Warnf("Provider response has no rate for %s (base %s)", target, base)
		return 0, fmt.Errorf("rate for %s missing in response", target)
	}

	rate := result.Float()
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		c.logger.Warnf("Provider returned invalid rate %v for %s/%s", rate, base, target)
		return 0, fmt.Errorf("invalid rate %v for %s/%s", rate, base, target)
	}

	c.logger.Debugf("Provider rate %s -> %s: %.6f", base, target, rate)
	return rate, nil
}
