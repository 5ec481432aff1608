package github

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"linkguard/internal/logger"
	"linkguard/internal/model"
	"linkguard/internal/publishers"

	"github.com/cenkalti/backoff/v4"
)

// Publisher commits the subscription to a file through the GitHub contents API.
type Publisher struct{}

type githubFileRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // Base64 encoded content
	Sha     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type githubFileResponse struct {
	Sha string `json:"sha"`
}

func (p *Publisher) Publish(links []model.Link, config map[string]interface{}) error {
	payload, err := publishers.GenerateSubscriptionPayload(links, config)
	if err != nil {
		return err
	}

	token, _ := config["token"].(string)
	owner, _ := config["owner"].(string)
	repo, _ := config["repo"].(string)
	path, _ := config["path"].(string)
	branch, _ := config["branch"].(string)
	msg, _ := config["message"].(string)

	apiBase, _ := config["api_url"].(string)
	if apiBase == "" {
		apiBase = "https://api.github.com"
	}
	apiBase = strings.TrimRight(apiBase, "/")

	timeout := 30 * time.Second
	if secs, ok := config["timeout"].(int); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	retries, _ := config["retries"].(int)

	if token == "" || owner == "" || repo == "" || path == "" {
		return fmt.Errorf("git publisher requires token, owner, repo, and path")
	}
	if msg == "" {
		msg = "Update link subscription [linkguard]"
	}

	path = strings.TrimPrefix(path, "/")
	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", apiBase, owner, repo, path)

	client := &http.Client{Timeout: timeout}
	if proxyStr, ok := config["_proxy_url"].(string); ok && proxyStr != "" {
		if u, err := url.Parse(proxyStr); err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
			logger.Log.Debugf("Git Publisher using proxy: %s", proxyStr)
		}
	}

	// 1. Existing SHA, empty when the file does not exist yet
	var currentSha string
	err = withRetries(retries, func() error {
		req, err := http.NewRequest(http.MethodGet, apiURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("invalid contents url: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if branch != "" {
			q := req.URL.Query()
			q.Add("ref", branch)
			req.URL.RawQuery = q.Encode()
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			var existing githubFileResponse
			if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to parse git response: %w", err))
			}
			currentSha = existing.Sha
			logger.Log.Debugf("Git: File exists (SHA: %s), updating...", currentSha)
			return nil
		case http.StatusNotFound:
			logger.Log.Debugf("Git: File not found, creating new...")
			return nil
		default:
			return statusError(resp)
		}
	})
	if err != nil {
		return fmt.Errorf("git fetch failed: %w", err)
	}

	// 2. Upload
	jsonBody, _ := json.Marshal(githubFileRequest{
		Message: msg,
		Content: base64.StdEncoding.EncodeToString([]byte(payload)),
		Sha:     currentSha,
		Branch:  branch,
	})
	err = withRetries(retries, func() error {
		req, err := http.NewRequest(http.MethodPut, apiURL, bytes.NewReader(jsonBody))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("invalid contents url: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.github.v3+json")

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		return statusError(resp)
	})
	if err != nil {
		return fmt.Errorf("git upload failed: %w", err)
	}
	return nil
}

// statusError marks 4xx responses other than 429 as permanent.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}

func withRetries(retries int, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithMaxRetries(b, uint64(max(retries, 0))))
}

func init() {
	publishers.Register("github", func() publishers.Publisher { return &Publisher{} })
}
