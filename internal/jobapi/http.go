package jobapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rsilvagit/joblist/internal/httpclient"
	"github.com/rsilvagit/joblist/internal/model"
	"github.com/rsilvagit/joblist/internal/query"
	"github.com/rsilvagit/joblist/internal/session"
)

// maxErrorBody bounds how much of an error response is kept in APIError.
const maxErrorBody = 512

// HTTP is the API backed by the remote jobs service.
type HTTP struct {
	client  *httpclient.Client
	baseURL string
}

// NewHTTP returns an API rooted at baseURL, e.g. "https://api.example.com/v1".
func NewHTTP(client *httpclient.Client, baseURL string) *HTTP {
	return &HTTP{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ListJobs calls GET {base}/jobs with the listing parameters.
func (h *HTTP) ListJobs(ctx context.Context, params query.Params) (*model.Page, error) {
	searchURL := fmt.Sprintf("%s/jobs?%s", h.baseURL, params.Encode())

	var page model.Page
	if err := h.do(ctx, http.MethodGet, searchURL, &page); err != nil {
		return nil, fmt.Errorf("jobapi: listing jobs: %w", err)
	}
	if page.Data == nil {
		page.Data = []model.Job{}
	}
	return &page, nil
}

// WithdrawApplication calls POST {base}/jobs/{id}/withdraw.
func (h *HTTP) WithdrawApplication(ctx context.Context, jobID string) error {
	if session.UserFromContext(ctx) == nil {
		return ErrUnauthenticated
	}
	withdrawURL := fmt.Sprintf("%s/jobs/%s/withdraw", h.baseURL, url.PathEscape(jobID))
	if err := h.do(ctx, http.MethodPost, withdrawURL, nil); err != nil {
		return fmt.Errorf("jobapi: withdrawing %s: %w", jobID, err)
	}
	return nil
}

// AppliedJobs calls GET {base}/jobs/applied.
func (h *HTTP) AppliedJobs(ctx context.Context) ([]model.Job, error) {
	if session.UserFromContext(ctx) == nil {
		return nil, ErrUnauthenticated
	}

	var body struct {
		Data []model.Job `json:"data"`
	}
	if err := h.do(ctx, http.MethodGet, h.baseURL+"/jobs/applied", &body); err != nil {
		return nil, fmt.Errorf("jobapi: listing applied jobs: %w", err)
	}
	if body.Data == nil {
		body.Data = []model.Job{}
	}
	return body.Data, nil
}

func (h *HTTP) do(ctx context.Context, method, target string, out any) error {
	if u := session.UserFromContext(ctx); u != nil && u.Token != "" {
		ctx = httpclient.WithToken(ctx, u.Token)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			msg = body.Message
		case body.Error != "":
			msg = body.Error
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
