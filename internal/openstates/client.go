package openstates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

// DefaultBaseURL is the Open States v3 API
const DefaultBaseURL = "https://v3.openstates.org"

const (
	perPage  = 50 // API maximum for /people
	maxPages = 40 // safety cap: 2,000 members per chamber
)

// Client wraps the Open States API. It implements legislature.Source.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *BillCache
}

// NewClient creates a new Open States API client. An empty baseURL selects
// DefaultBaseURL; a nil cache disables bill caching.
func NewClient(apiKey, baseURL string, timeout time.Duration, cache *BillCache) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache: cache,
	}
}

// RateLimitError is returned when the API answers 429
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter == "" {
		return "open states rate limit exceeded"
	}
	return fmt.Sprintf("open states rate limit exceeded, retry after %ss", e.RetryAfter)
}

// doRequest makes an authenticated GET against the API
func (c *Client) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "legiscore-scorecard")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		resp.Body.Close()
		return nil, &RateLimitError{RetryAfter: retryAfter}
	}

	return resp, nil
}

// readAndClose decodes the body and closes it
func readAndClose(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// readErrorAndClose reads an error body and closes it
func readErrorAndClose(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("open states API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// FetchRoster fetches the currently serving members of one chamber, following pagination
func (c *Client) FetchRoster(ctx context.Context, state string, chamber legislature.Chamber) ([]legislature.Member, error) {
	var members []legislature.Member

	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("jurisdiction", JurisdictionID(state))
		q.Set("org_classification", string(chamber))
		q.Set("include", "other_identifiers")
		q.Set("per_page", fmt.Sprint(perPage))
		q.Set("page", fmt.Sprint(page))

		resp, err := c.doRequest(ctx, c.baseURL+"/people?"+q.Encode())
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, readErrorAndClose(resp)
		}

		var body PeopleResponse
		if err := readAndClose(resp, &body); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		for _, person := range body.Results {
			m, err := person.Member()
			if err != nil {
				return nil, fmt.Errorf("invalid person record: %w", err)
			}
			members = append(members, m)
		}

		if len(body.Results) == 0 || page >= body.Pagination.MaxPage {
			break
		}
	}

	return members, nil
}

// FetchBillVotes fetches every roll call on a bill. Results are cached per bill.
func (c *Client) FetchBillVotes(ctx context.Context, state, session, billID string) ([]legislature.VoteRecord, error) {
	if c.cache != nil {
		if votes, found := c.cache.Get(state, session, billID); found {
			slog.Debug("Bill votes served from cache", "session", session, "bill", billID)
			return votes, nil
		}
	}

	endpoint := fmt.Sprintf("%s/bills/%s/%s/%s?include=votes",
		c.baseURL,
		url.PathEscape(strings.ToLower(state)),
		url.PathEscape(session),
		url.PathEscape(billID),
	)

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("bill %s (%s) not found", billID, session)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, readErrorAndClose(resp)
	}

	var bill Bill
	if err := readAndClose(resp, &bill); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	votes := make([]legislature.VoteRecord, 0, len(bill.Votes))
	for _, event := range bill.Votes {
		record, err := event.Record()
		if err != nil {
			return nil, fmt.Errorf("invalid vote on %s: %w", billID, err)
		}
		votes = append(votes, record)
	}

	if c.cache != nil {
		c.cache.Put(state, session, billID, votes)
	}

	return votes, nil
}
