// Package navifeed fetches per-recipient forecast documents from the
// navifeed XML endpoint.
package navifeed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kukua/saro-sms/internal/domain"
)

// Lookahead windows requested from the feed, as <hours>/<step>/<offset>.
// The daily formats read four 6h slots per day; the four-day summary reads
// two 12h slots per day across four days.
const (
	windowDaily   = "72/6h/-24"
	windowFourDay = "96/12h/-12"
)

// Client fetches forecast documents for recipient coordinates.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a navifeed client. feedURL is the configured base URL
// including its query string; per-request parameters are appended to it.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch retrieves and parses the forecast document for one recipient, using
// the lookahead window of the recipient's format.
func (c *Client) Fetch(ctx context.Context, r domain.Recipient) (domain.ForecastDocument, error) {
	u := fmt.Sprintf("%s&ftimes=%s&lat=%s&lon=%s",
		c.feedURL, windowFor(r.Format), formatCoord(r.Latitude), formatCoord(r.Longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.ForecastDocument{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ForecastDocument{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ForecastDocument{}, fmt.Errorf("read forecast response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.ForecastDocument{}, fmt.Errorf("navifeed error: status %d: %s", resp.StatusCode, body)
	}

	c.logger.Debug("raw forecast document", "recipient", r.Number, "body", string(body))

	doc, err := domain.ParseForecast(body)
	if err != nil {
		c.logger.Error("unparseable forecast document", "recipient", r.Number, "body", string(body))
		return domain.ForecastDocument{}, err
	}
	return doc, nil
}

func windowFor(format domain.Format) string {
	if format == domain.FormatFourDay {
		return windowFourDay
	}
	return windowDaily
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
