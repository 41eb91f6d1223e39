package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"quizify-engine/internal/domain"
)

// Client is the thin HTTP client for the external performance-report
// backend. All calls carry the bearer credential issued by the auth
// collaborator; a failed submit is recoverable and never blocks showing the
// user their score.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying transport.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitResult is the backend's acknowledgement of a stored report.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		ReportID               string `json:"reportId"`
		Score                  int    `json:"score"`
		TotalMarks             int    `json:"totalMarks"`
		Accuracy               int    `json:"accuracy"`
		AverageTimePerQuestion int    `json:"averageTimePerQuestion"`
	} `json:"data"`
}

// ReportBrief is one row of the dashboard's recent-reports list.
type ReportBrief struct {
	QuizID     string `json:"quizId"`
	UserMarks  int    `json:"userMarks"`
	TotalMarks int    `json:"totalMarks"`
	Accuracy   int    `json:"accuracy"`
	TimeSpent  int    `json:"timeSpent"`
	Summary    string `json:"summary"`
	CreatedAt  string `json:"createdAt"`
}

// Dashboard carries the aggregate totals for the dashboard view.
type Dashboard struct {
	Success bool `json:"success"`
	Data    struct {
		TotalQuizzes    int           `json:"totalQuizzes"`
		TotalScore      int           `json:"totalScore"`
		AverageAccuracy int           `json:"averageAccuracy"`
		BestAccuracy    int           `json:"bestAccuracy"`
		Recent          []ReportBrief `json:"recentReports"`
	} `json:"data"`
}

// HistoryPage is one page of the performance history.
type HistoryPage struct {
	Success bool `json:"success"`
	Data    struct {
		Reports     []ReportBrief `json:"reports"`
		TotalPages  int           `json:"totalPages"`
		CurrentPage int           `json:"currentPage"`
		Total       int           `json:"total"`
	} `json:"data"`
}

// Submit POSTs the flat summary fields to the backend. A non-success
// response maps to domain.ErrPersistence so callers can log and move on.
func (c *Client) Submit(ctx context.Context, summary domain.SubmissionSummary) (SubmitResult, error) {
	body, err := json.Marshal(summary)
	if err != nil {
		return SubmitResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/quiz/submit", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer resp.Body.Close()

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: decode response: %v", domain.ErrPersistence, err)
	}
	if resp.StatusCode != http.StatusOK || !result.Success {
		return result, fmt.Errorf("%w: status %d, %s", domain.ErrPersistence, resp.StatusCode, result.Message)
	}
	return result, nil
}

// Dashboard fetches the aggregate stats for the dashboard view.
func (c *Client) Dashboard(ctx context.Context) (Dashboard, error) {
	var dashboard Dashboard
	if err := c.getJSON(ctx, c.baseURL+"/api/quiz/dashboard", &dashboard); err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

// History fetches one page of the performance history.
func (c *Client) History(ctx context.Context, page, limit int) (HistoryPage, error) {
	url := c.baseURL + "/api/quiz/performance?page=" + strconv.Itoa(page) + "&limit=" + strconv.Itoa(limit)
	var history HistoryPage
	if err := c.getJSON(ctx, url, &history); err != nil {
		return HistoryPage{}, err
	}
	return history, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("report backend status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
