package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gothyxan/storefront/internal/admin"
)

const defaultCommitTimeout = 15 * time.Second

var (
	errRemoteOwnerRequired = errors.New("remote publisher: owner and repo are required")
	errRemoteTokenRequired = errors.New("remote publisher: token is required")

	// ErrRemoteRejected indicates the hosting API refused the write.
	ErrRemoteRejected = errors.New("remote publisher: write rejected")
)

// PublisherDeps bundles constructor inputs for the contents-API publisher.
type PublisherDeps struct {
	BaseURL    string
	Owner      string
	Repo       string
	Branch     string
	Token      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     func(context.Context, string, map[string]any)
}

// Publisher commits a file to a repository through the hosting platform's
// contents API: one GET to learn the current blob sha, one PUT carrying the
// base64 content, the change message and that sha. A single attempt per
// command; retries are the caller's decision and the caller never retries.
type Publisher struct {
	baseURL string
	owner   string
	repo    string
	branch  string
	token   string
	client  *http.Client
	timeout time.Duration
	logger  func(context.Context, string, map[string]any)
}

// NewPublisher constructs the publisher with the supplied dependencies.
func NewPublisher(deps PublisherDeps) (*Publisher, error) {
	if deps.Owner == "" || deps.Repo == "" {
		return nil, errRemoteOwnerRequired
	}
	if deps.Token == "" {
		return nil, errRemoteTokenRequired
	}
	baseURL := deps.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	branch := deps.Branch
	if branch == "" {
		branch = "main"
	}
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = defaultCommitTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Publisher{
		baseURL: baseURL,
		owner:   deps.Owner,
		repo:    deps.Repo,
		branch:  branch,
		token:   deps.Token,
		client:  client,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Publish writes the command's content to its target path in one commit.
func (p *Publisher) Publish(ctx context.Context, cmd admin.PersistCommand) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	sha, err := p.currentSHA(ctx, cmd.Path)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"message": cmd.Message,
		"content": base64.StdEncoding.EncodeToString(cmd.Content),
		"branch":  p.branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.contentsURL(cmd.Path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	p.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger(ctx, "remote.publish_rejected", map[string]any{
			"path":   cmd.Path,
			"status": resp.StatusCode,
		})
		return fmt.Errorf("%w: status %d: %s", ErrRemoteRejected, resp.StatusCode, string(detail))
	}

	p.logger(ctx, "remote.published", map[string]any{
		"path":   cmd.Path,
		"branch": p.branch,
	})
	return nil
}

// currentSHA fetches the existing blob sha for the path. A missing file is
// not an error; the subsequent PUT creates it.
func (p *Publisher) currentSHA(ctx context.Context, path string) (string, error) {
	url := fmt.Sprintf("%s?ref=%s", p.contentsURL(path), p.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	p.setHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var file struct {
			SHA string `json:"sha"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
			return "", err
		}
		return file.SHA, nil
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("%w: reading %s: status %d", ErrRemoteRejected, path, resp.StatusCode)
	}
}

func (p *Publisher) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", p.baseURL, p.owner, p.repo, path)
}

func (p *Publisher) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}
