package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/semestra/internal/apperr"
	"github.com/starford/semestra/internal/models"
)

// UpsertRequest is the body of PUT /semesters/{id}.
type UpsertRequest struct {
	SemesterName string           `json:"semester_name"`
	Subjects     []models.Subject `json:"subjects"`
}

// ModuleListResponse is the body of GET /modules.
type ModuleListResponse struct {
	Modules []models.Module `json:"modules"`
}

// RecordListResponse is the body of GET /semesters.
type RecordListResponse struct {
	Semesters []models.SemesterRecord `json:"semesters"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to the record API over HTTP. It satisfies ModuleLister and
// RecordStore.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var (
	_ ModuleLister = (*Client)(nil)
	_ RecordStore  = (*Client)(nil)
)

// NewClient creates a client for the API mounted at baseURL
// (e.g. "http://localhost:8080/api"). An empty token sends no Authorization header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchModules implements ModuleLister.
func (c *Client) FetchModules(ctx context.Context) ([]models.Module, error) {
	var out ModuleListResponse
	if err := c.do(ctx, http.MethodGet, "/modules", nil, &out); err != nil {
		return nil, err
	}
	return out.Modules, nil
}

// FetchAllSemesterRecords implements RecordStore.
func (c *Client) FetchAllSemesterRecords(ctx context.Context) ([]models.SemesterRecord, error) {
	var out RecordListResponse
	if err := c.do(ctx, http.MethodGet, "/semesters", nil, &out); err != nil {
		return nil, err
	}
	return out.Semesters, nil
}

// UpsertSemesterRecord implements RecordStore.
func (c *Client) UpsertSemesterRecord(ctx context.Context, id models.SemesterID, name string, subjects []models.Subject) (models.SemesterRecord, error) {
	var out models.SemesterRecord
	body := UpsertRequest{SemesterName: name, Subjects: subjects}
	if err := c.do(ctx, http.MethodPut, "/semesters/"+id.String(), body, &out); err != nil {
		return models.SemesterRecord{}, err
	}
	return out, nil
}

// DeleteSemesterRecord implements RecordStore.
func (c *Client) DeleteSemesterRecord(ctx context.Context, id models.SemesterID) error {
	return c.do(ctx, http.MethodDelete, "/semesters/"+id.String(), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Network(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return apperr.Network(err)
	}

	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Server(fmt.Sprintf("unreadable response: %v", err))
	}
	return nil
}

func statusError(status int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	msg := er.Error

	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "the server rejected the semester"
		}
		return apperr.Validation(msg)
	case http.StatusNotFound:
		return &apperr.Error{Kind: apperr.ErrNotFound, Message: nonEmpty(msg, "not found")}
	case http.StatusConflict:
		return apperr.Conflict(nonEmpty(msg, "the semester was changed elsewhere, refresh and retry"))
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.Server(nonEmpty(msg, "not authorized"))
	}
	return apperr.Server(msg)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
