// Package api speaks the QuillDeck backend contract: a health probe,
// auth endpoints, multipart document upload, and summary generation.
// Every operation returns either a value or exactly one classified
// *Error; no transport or parsing failure escapes unclassified.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL matches the dev server the web client proxies to.
	DefaultBaseURL = "http://localhost:8080"

	defaultHTTPTimeout = 2 * time.Minute
	maxResponseBytes   = 1 << 20
)

// Client is a thin, classification-aware wrapper over the backend API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New builds a client for the given base URL. A nil http.Client selects
// a default with a generous timeout; cancellation is the caller's
// context's job.
func New(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  pickHTTPClient(client),
	}
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// BaseURL reports the server this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Health probes GET /health and returns the reported status string.
func (c *Client) Health(ctx context.Context) (string, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "", Validation(fmt.Sprintf("build health request: %v", err))
	}
	var out struct {
		Status string `json:"status"`
	}
	if cerr := c.do(req, &out); cerr != nil {
		return "", cerr
	}
	return out.Status, nil
}

// Register creates an account and returns the fresh user id.
func (c *Client) Register(ctx context.Context, email, password, name string) (string, *Error) {
	body := map[string]string{"email": email, "password": password, "name": name}
	return c.authRequest(ctx, "/api/auth/register", body)
}

// Login authenticates existing credentials and returns the user id.
func (c *Client) Login(ctx context.Context, email, password string) (string, *Error) {
	body := map[string]string{"email": email, "password": password}
	return c.authRequest(ctx, "/api/auth/login", body)
}

func (c *Client) authRequest(ctx context.Context, path string, body map[string]string) (string, *Error) {
	var out struct {
		UserID string `json:"user_id"`
	}
	if cerr := c.postJSON(ctx, path, body, &out); cerr != nil {
		return "", cerr
	}
	if out.UserID == "" {
		return "", &Error{Kind: KindServerError, Message: "auth response missing user_id", Status: http.StatusOK}
	}
	return out.UserID, nil
}

// Upload transmits the document as a multipart body (field name "file",
// per the server handler) and returns the new document id. Byte
// progress is reported through onProgress as an integer percentage,
// monotonically and capped at 99; 100 belongs to a confirmed response.
func (c *Client) Upload(ctx context.Context, fileName string, content io.Reader, size int64, onProgress func(percent int)) (string, *Error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", fileName)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		src := content
		if onProgress != nil && size > 0 {
			src = &progressReader{r: content, total: size, report: onProgress}
		}
		if _, err := io.Copy(part, src); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents/upload", pr)
	if err != nil {
		return "", Validation(fmt.Sprintf("build upload request: %v", err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out struct {
		DocumentID string `json:"document_id"`
	}
	if cerr := c.do(req, &out); cerr != nil {
		return "", cerr
	}
	if out.DocumentID == "" {
		return "", &Error{Kind: KindServerError, Message: "upload response missing document_id", Status: http.StatusOK}
	}
	return out.DocumentID, nil
}

// SummaryResult is the payload of a successful generation.
type SummaryResult struct {
	Content  string
	Keywords []string
}

// GenerateSummary asks the backend to summarize the given document at
// the requested length (short, medium, long). Absent keywords come
// back as an empty slice, never nil.
func (c *Client) GenerateSummary(ctx context.Context, documentID, length string) (SummaryResult, *Error) {
	body := map[string]string{"document_id": documentID, "length": length}
	var out struct {
		Content  string   `json:"content"`
		Keywords []string `json:"keywords"`
	}
	if cerr := c.postJSON(ctx, "/api/documents/summary", body, &out); cerr != nil {
		return SummaryResult{}, cerr
	}
	if out.Content == "" {
		return SummaryResult{}, &Error{Kind: KindServerError, Message: "summary response missing content", Status: http.StatusOK}
	}
	keywords := out.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return SummaryResult{Content: out.Content, Keywords: keywords}, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, out any) *Error {
	buf, err := json.Marshal(body)
	if err != nil {
		return Validation(fmt.Sprintf("encode request: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return Validation(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

// do runs the request and applies the classification precedence:
// transport failure, then HTTP status, then an error field in the
// payload, then a malformed payload.
func (c *Client) do(req *http.Request, out any) *Error {
	resp, err := c.client.Do(req)
	if err != nil {
		return Unreachable(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Unreachable(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ServerError(resp.StatusCode)
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &Error{Kind: KindServerError, Message: "malformed server response", Status: resp.StatusCode, Err: err}
	}
	if envelope.Error != "" {
		return Application(envelope.Error)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Kind: KindServerError, Message: "malformed server response", Status: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// progressReader counts bytes flowing into the multipart body. It never
// reports 100: completion is only known once the server answers.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.read += int64(n)
		percent := int(p.read * 100 / p.total)
		if percent > 99 {
			percent = 99
		}
		if percent > p.last {
			p.last = percent
			p.report(percent)
		}
	}
	return n, err
}
