package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"quizify-engine/internal/domain"
	"quizify-engine/internal/ratelimit"
)

// DefaultBaseURL is the Open Trivia Database question endpoint.
const DefaultBaseURL = "https://opentdb.com/api.php"

// DefaultCategoryURL lists the provider's categories.
const DefaultCategoryURL = "https://opentdb.com/api_category.php"

// DefaultCountURL reports per-category question counts.
const DefaultCountURL = "https://opentdb.com/api_count.php"

const defaultRetryAfter = 5000 * time.Millisecond

// Smart-fallback heuristic: skip the network entirely when this many
// requests landed within the span. Best effort, thresholds carried over
// as-is from the original policy.
const (
	smartActivityThreshold = 3
	smartActivitySpan      = 30 * time.Second
)

// Mode selects the failure policy applied by Acquire.
type Mode int

const (
	// ModeStrict propagates acquisition failures to the caller.
	ModeStrict Mode = iota
	// ModeFallback absorbs any failure into the bundled bank.
	ModeFallback
	// ModeSmart is ModeFallback plus a short-circuit to the bank when
	// recent request activity indicates imminent throttling.
	ModeSmart
)

// Request describes one batch of questions to acquire.
type Request struct {
	Amount     int                 `json:"amount"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Kind       domain.QuestionKind `json:"type"`
	Category   string              `json:"category"`
}

// DefaultRequest mirrors the provider defaults the original client used.
func DefaultRequest() Request {
	return Request{Amount: 15, Difficulty: domain.DifficultyAny, Kind: domain.KindAny, Category: "any"}
}

// Presets are the named configurations offered to callers.
var Presets = map[string]Request{
	"easy_mixed":           {Amount: 10, Difficulty: domain.DifficultyEasy, Kind: domain.KindAny, Category: "any"},
	"medium_mixed":         {Amount: 15, Difficulty: domain.DifficultyMedium, Kind: domain.KindAny, Category: "any"},
	"hard_mixed":           {Amount: 20, Difficulty: domain.DifficultyHard, Kind: domain.KindAny, Category: "any"},
	"science_focus":        {Amount: 15, Difficulty: domain.DifficultyAny, Kind: domain.KindAny, Category: "17"},
	"entertainment_focus":  {Amount: 15, Difficulty: domain.DifficultyAny, Kind: domain.KindAny, Category: "10"},
	"boolean_only":         {Amount: 15, Difficulty: domain.DifficultyAny, Kind: domain.KindBoolean, Category: "any"},
	"multiple_choice_only": {Amount: 15, Difficulty: domain.DifficultyAny, Kind: domain.KindMultiple, Category: "any"},
}

// Category is one provider category.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CategoryCount carries the provider's per-difficulty question counts.
type CategoryCount struct {
	Total       int `json:"total_question_count"`
	TotalEasy   int `json:"total_easy_question_count"`
	TotalMedium int `json:"total_medium_question_count"`
	TotalHard   int `json:"total_hard_question_count"`
}

// Client acquires question batches from the provider, guarded by the rate
// limiter, with the bundled bank as local fallback. Concurrent fetches with
// identical parameters collapse into one provider call.
type Client struct {
	baseURL     string
	categoryURL string
	countURL    string
	httpClient  *http.Client
	limiter     *ratelimit.Limiter
	mode        Mode
	bank        []domain.Question
	clock       func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
	sf          singleflight.Group
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different question endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithCategoryURLs overrides the category endpoints.
func WithCategoryURLs(categoryURL, countURL string) ClientOption {
	return func(c *Client) {
		c.categoryURL = categoryURL
		c.countURL = countURL
	}
}

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithMode sets the failure policy used by Acquire.
func WithMode(mode Mode) ClientOption {
	return func(c *Client) { c.mode = mode }
}

// WithBank replaces the bundled fallback bank.
func WithBank(bank []domain.Question) ClientOption {
	return func(c *Client) { c.bank = bank }
}

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// WithSleep injects the retry pause primitive for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(limiter *ratelimit.Limiter, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:     DefaultBaseURL,
		categoryURL: DefaultCategoryURL,
		countURL:    DefaultCountURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     limiter,
		mode:        ModeSmart,
		bank:        FallbackBank(),
		clock:       time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire fetches questions under the client's configured failure policy.
func (c *Client) Acquire(ctx context.Context, req Request) ([]domain.Question, error) {
	switch c.mode {
	case ModeFallback:
		return c.FetchWithFallback(ctx, req)
	case ModeSmart:
		return c.FetchSmart(ctx, req)
	}
	return c.Fetch(ctx, req)
}

// Fetch acquires one batch from the live provider. Failures propagate.
func (c *Client) Fetch(ctx context.Context, req Request) ([]domain.Question, error) {
	result, err, _ := c.sf.Do(fetchKey(req), func() (interface{}, error) {
		return c.fetch(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// FetchWithFallback substitutes the bundled bank on any failure; the error
// never reaches the caller.
func (c *Client) FetchWithFallback(ctx context.Context, req Request) ([]domain.Question, error) {
	questions, err := c.Fetch(ctx, req)
	if err != nil {
		log.Printf("trivia fetch failed, using fallback bank: %v", err)
		return c.fallback(req.Amount), nil
	}
	return questions, nil
}

// FetchSmart short-circuits to the bank, without a network attempt, when the
// persisted counters show recent activity likely to trip the provider's
// throttle; otherwise it behaves like FetchWithFallback.
func (c *Client) FetchSmart(ctx context.Context, req Request) ([]domain.Question, error) {
	recent, err := c.limiter.RecentActivity(ctx, c.clock(), smartActivityThreshold, smartActivitySpan)
	if err == nil && recent {
		log.Printf("trivia: recent api activity, using fallback bank immediately")
		return c.fallback(req.Amount), nil
	}
	return c.FetchWithFallback(ctx, req)
}

func (c *Client) fallback(amount int) []domain.Question {
	if amount <= 0 || amount > len(c.bank) {
		amount = len(c.bank)
	}
	return append([]domain.Question(nil), c.bank[:amount]...)
}

func (c *Client) fetch(ctx context.Context, req Request) ([]domain.Question, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, c.questionURL(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(resp)
		drain(resp)
		log.Printf("trivia provider returned 429, retrying once in %s", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		if err := c.limiter.RecordRequest(ctx, c.clock(), false); err != nil {
			return nil, err
		}
		resp, err = c.get(ctx, c.questionURL(req))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			drain(resp)
			return nil, domain.ErrRateLimited
		}
	} else if resp.StatusCode != http.StatusOK {
		status := resp.StatusCode
		drain(resp)
		return nil, fmt.Errorf("%w: status %d", domain.ErrTransport, status)
	}

	defer resp.Body.Close()
	var payload struct {
		ResponseCode int               `json:"response_code"`
		Results      []domain.Question `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode trivia response: %w", err)
	}
	if err := providerError(payload.ResponseCode); err != nil {
		return nil, err
	}

	questions := make([]domain.Question, len(payload.Results))
	for i, q := range payload.Results {
		questions[i] = decodeEntities(q)
	}
	return questions, nil
}

// Categories lists the provider's trivia categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	resp, err := c.get(ctx, c.categoryURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrTransport, resp.StatusCode)
	}
	var payload struct {
		Categories []Category `json:"trivia_categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return payload.Categories, nil
}

// CategoryCount reports how many questions the provider holds for one
// category.
func (c *Client) CategoryCount(ctx context.Context, categoryID int) (CategoryCount, error) {
	resp, err := c.get(ctx, c.countURL+"?category="+strconv.Itoa(categoryID))
	if err != nil {
		return CategoryCount{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return CategoryCount{}, fmt.Errorf("%w: status %d", domain.ErrTransport, resp.StatusCode)
	}
	var payload struct {
		Count CategoryCount `json:"category_question_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CategoryCount{}, fmt.Errorf("decode category count: %w", err)
	}
	return payload.Count, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	return resp, nil
}

func (c *Client) questionURL(req Request) string {
	params := url.Values{}
	params.Set("amount", strconv.Itoa(req.Amount))
	if req.Difficulty != "" && req.Difficulty != domain.DifficultyAny {
		params.Set("difficulty", string(req.Difficulty))
	}
	if req.Kind != "" && req.Kind != domain.KindAny {
		params.Set("type", string(req.Kind))
	}
	if req.Category != "" && req.Category != "any" {
		params.Set("category", req.Category)
	}
	return c.baseURL + "?" + params.Encode()
}

func providerError(code int) error {
	switch code {
	case 0:
		return nil
	case 1:
		return domain.ErrNoResults
	case 2:
		return domain.ErrInvalidParameter
	case 3:
		return domain.ErrTokenNotFound
	case 4:
		return domain.ErrTokenEmpty
	}
	return fmt.Errorf("%w: response code %d", domain.ErrProvider, code)
}

func decodeEntities(q domain.Question) domain.Question {
	q.Prompt = html.UnescapeString(q.Prompt)
	q.Category = html.UnescapeString(q.Category)
	q.CorrectAnswer = html.UnescapeString(q.CorrectAnswer)
	decoded := make([]string, len(q.IncorrectAnswers))
	for i, answer := range q.IncorrectAnswers {
		decoded[i] = html.UnescapeString(answer)
	}
	q.IncorrectAnswers = decoded
	return q
}

func retryAfter(resp *http.Response) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultRetryAfter
}

func fetchKey(req Request) string {
	return fmt.Sprintf("%d|%s|%s|%s", req.Amount, req.Difficulty, req.Kind, req.Category)
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
