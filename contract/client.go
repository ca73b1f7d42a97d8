package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	notesPath = "/api/Notes"
	resetPath = "/api/Notes/reset/all"
)

// Note is a note as the service under test returns it.
type Note struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Attachments []string `json:"attachments"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

// NoteInput is the body sent on create and update.
type NoteInput struct {
	Title       string   `json:"title"`
	Content     string   `json:"content,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// Response is a raw HTTP exchange result. Assertions work on the status and body
// rather than on typed errors, so unexpected shapes are reported verbatim.
type Response struct {
	Method string
	Path   string
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%s %s: decode %d body %q: %w", r.Method, r.Path, r.Status, truncate(r.Body, 200), err)
	}
	return nil
}

func (r *Response) String() string {
	return fmt.Sprintf("%s %s -> %d %s", r.Method, r.Path, r.Status, truncate(r.Body, 200))
}

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// NotesClient talks to the note endpoints of one service.
type NotesClient struct {
	BaseURL    string
	HTTP       *http.Client
	ResetToken string

	mu sync.Mutex
	// updateVerb is the verb that last succeeded for an update; tried first next time.
	updateVerb string
}

func NewNotesClient(baseURL string, timeout time.Duration) *NotesClient {
	return &NotesClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTP:       &http.Client{Timeout: timeout},
		updateVerb: http.MethodPut,
	}
}

// Fresh returns a client for the same service that shares no connections with c.
func (c *NotesClient) Fresh() *NotesClient {
	timeout := c.HTTP.Timeout
	fresh := NewNotesClient(c.BaseURL, timeout)
	fresh.HTTP.Transport = &http.Transport{DisableKeepAlives: true}
	fresh.ResetToken = c.ResetToken
	fresh.updateVerb = c.UpdateVerb()
	return fresh
}

// UpdateVerb is the verb the next Update tries first.
func (c *NotesClient) UpdateVerb() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateVerb
}

// Do sends body as JSON. A []byte or json.RawMessage body is sent as is, so malformed
// payloads can be exercised.
func (c *NotesClient) Do(ctx context.Context, method, path string, body any) (*Response, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case json.RawMessage:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if path == resetPath && c.ResetToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.ResetToken)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	return &Response{
		Method: method,
		Path:   path,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   data,
	}, nil
}

func notePath(id string) string {
	return notesPath + "/" + url.PathEscape(id)
}

func (c *NotesClient) List(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodGet, notesPath, nil)
}

// Search lists notes matching query.
func (c *NotesClient) Search(ctx context.Context, query string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, notesPath+"?q="+url.QueryEscape(query), nil)
}

func (c *NotesClient) Create(ctx context.Context, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, notesPath, body)
}

func (c *NotesClient) Get(ctx context.Context, id string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, notePath(id), nil)
}

func (c *NotesClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, notePath(id), nil)
}

func (c *NotesClient) Reset(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, resetPath, nil)
}

func alternateVerb(verb string) string {
	if verb == http.MethodPut {
		return http.MethodPatch
	}
	return http.MethodPut
}

// Update sends body with the preferred update verb. A 404 or 405 is retried once
// with the other verb; when that one succeeds it becomes the preferred verb.
func (c *NotesClient) Update(ctx context.Context, id string, body any) (*Response, error) {
	verb := c.UpdateVerb()
	resp, err := c.Do(ctx, verb, notePath(id), body)
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusNotFound && resp.Status != http.StatusMethodNotAllowed {
		return resp, nil
	}

	alt := alternateVerb(verb)
	altResp, err := c.Do(ctx, alt, notePath(id), body)
	if err != nil {
		return nil, err
	}
	if altResp.OK() {
		c.mu.Lock()
		c.updateVerb = alt
		c.mu.Unlock()
		return altResp, nil
	}
	// Prefer the answer that says more than "verb not supported".
	if altResp.Status == http.StatusMethodNotAllowed {
		return resp, nil
	}
	return altResp, nil
}

// DecodeNote decodes a single note body.
func DecodeNote(resp *Response) (*Note, error) {
	var note Note
	if err := resp.Decode(&note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DecodeNotes decodes a note array body.
func DecodeNotes(resp *Response) ([]Note, error) {
	var notes []Note
	if err := resp.Decode(&notes); err != nil {
		return nil, err
	}
	return notes, nil
}
