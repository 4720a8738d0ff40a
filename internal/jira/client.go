// Package jira is the ticket-lookup provider: it fetches issue data so a
// room can show what is being estimated. Failures here never affect room
// state; a room simply keeps (or clears) its current ticket.
package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/scrumdeck/poker-host/internal/room"
)

// Config is the connection configuration, supplied at process start or
// unlocked from the credential vault at runtime.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
}

type Client struct {
	logger *zap.Logger
	http   *resty.Client

	mu  sync.RWMutex
	cfg Config
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	c := &Client{
		logger: logger,
		http: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
	c.SetConfig(cfg)
	return c
}

func (c *Client) SetConfig(cfg Config) {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()
}

func (c *Client) Config() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// Configured reports whether all three settings are present.
func (c *Client) Configured() bool {
	cfg := c.Config()
	return cfg.BaseURL != "" && cfg.Email != "" && cfg.APIToken != ""
}

type namedField struct {
	Name string `json:"name"`
}

type issueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	IssueType   *namedField     `json:"issuetype"`
	Status      *namedField     `json:"status"`
}

type issueResponse struct {
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

// FetchTicket loads one issue by key and shapes it into a room ticket.
func (c *Client) FetchTicket(ctx context.Context, key string) (room.Ticket, error) {
	cfg := c.Config()
	if cfg.BaseURL == "" || cfg.Email == "" || cfg.APIToken == "" {
		return room.Ticket{}, fmt.Errorf("jira is not configured")
	}

	var issue issueResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(cfg.Email, cfg.APIToken).
		SetResult(&issue).
		Get(cfg.BaseURL + "/rest/api/3/issue/" + key)
	if err != nil {
		return room.Ticket{}, fmt.Errorf("fetch ticket %s: %w", key, err)
	}
	if resp.IsError() {
		return room.Ticket{}, fmt.Errorf("jira api error (%s): %s", resp.Status(), resp.String())
	}

	ticket := room.Ticket{
		Key:     issue.Key,
		Summary: issue.Fields.Summary,
		URL:     cfg.BaseURL + "/browse/" + issue.Key,
	}
	if desc := descriptionText(issue.Fields.Description); desc != "" {
		ticket.Description = &desc
	}
	if issue.Fields.IssueType != nil {
		ticket.IssueType = &issue.Fields.IssueType.Name
	}
	if issue.Fields.Status != nil {
		ticket.Status = &issue.Fields.Status.Name
	}
	return ticket, nil
}

type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	cfg := c.Config()
	if !c.Configured() {
		return nil, fmt.Errorf("jira is not configured")
	}

	var projects []Project
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(cfg.Email, cfg.APIToken).
		SetResult(&projects).
		Get(cfg.BaseURL + "/rest/api/3/project")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jira api error (%s): %s", resp.Status(), resp.String())
	}
	return projects, nil
}

type Board struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type boardsResponse struct {
	Values []Board `json:"values"`
}

func (c *Client) ListBoards(ctx context.Context, projectKey string) ([]Board, error) {
	cfg := c.Config()
	if !c.Configured() {
		return nil, fmt.Errorf("jira is not configured")
	}

	var boards boardsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(cfg.Email, cfg.APIToken).
		SetQueryParam("projectKeyOrId", projectKey).
		SetResult(&boards).
		Get(cfg.BaseURL + "/rest/agile/1.0/board")
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jira api error (%s): %s", resp.Status(), resp.String())
	}
	return boards.Values, nil
}

type IssueInfo struct {
	Key       string  `json:"key"`
	Summary   string  `json:"summary"`
	IssueType *string `json:"issue_type"`
	Status    *string `json:"status"`
}

type boardIssuesResponse struct {
	Issues []issueResponse `json:"issues"`
}

// ListBoardIssues prefers the backlog and falls back to the board's issue
// list for boards without one.
func (c *Client) ListBoardIssues(ctx context.Context, boardID int64) ([]IssueInfo, error) {
	cfg := c.Config()
	if !c.Configured() {
		return nil, fmt.Errorf("jira is not configured")
	}

	issues, err := c.fetchBoardIssues(ctx, cfg,
		fmt.Sprintf("%s/rest/agile/1.0/board/%d/backlog", cfg.BaseURL, boardID))
	if err != nil {
		c.logger.Debug("backlog fetch failed, trying board issues",
			zap.Int64("board_id", boardID), zap.Error(err))
		issues, err = c.fetchBoardIssues(ctx, cfg,
			fmt.Sprintf("%s/rest/agile/1.0/board/%d/issue", cfg.BaseURL, boardID))
		if err != nil {
			return nil, err
		}
	}
	return issues, nil
}

func (c *Client) fetchBoardIssues(ctx context.Context, cfg Config, url string) ([]IssueInfo, error) {
	var body boardIssuesResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(cfg.Email, cfg.APIToken).
		SetQueryParam("maxResults", "50").
		SetResult(&body).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("jira api error (%s): %s", resp.Status(), resp.String())
	}

	out := make([]IssueInfo, 0, len(body.Issues))
	for _, issue := range body.Issues {
		info := IssueInfo{Key: issue.Key, Summary: issue.Fields.Summary}
		if issue.Fields.IssueType != nil {
			info.IssueType = &issue.Fields.IssueType.Name
		}
		if issue.Fields.Status != nil {
			info.Status = &issue.Fields.Status.Name
		}
		out = append(out, info)
	}
	return out, nil
}
