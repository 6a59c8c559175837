// Package client provides an HTTP client for the visit report API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/zuriciver-web/v0-technical-visit-form/internal/visit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// GeneratePath is the render endpoint.
const GeneratePath = "/api/generate-pdf"

// Client is an HTTP client for the visit report API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Download is a rendered report returned by the server.
type Download struct {
	Filename string
	ReportID string
	PDF      []byte
}

// GeneratePDF submits a visit record and returns the rendered report.
func (c *Client) GeneratePDF(ctx context.Context, rec *visit.Record) (*Download, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GeneratePath, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/pdf") {
		return nil, fmt.Errorf("unexpected content type %q", ct)
	}

	filename := filenameFrom(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = visit.ReportFilename(rec.ProjectCode)
	}

	return &Download{
		Filename: filename,
		ReportID: resp.Header.Get("X-Report-ID"),
		PDF:      body,
	}, nil
}

// Health checks that the server is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	_, _, err = c.do(req)
	return err
}

// do executes an HTTP request and turns error responses into errors.
func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			return nil, nil, &StatusError{Code: resp.StatusCode, Message: errResp.Error}
		}
		return nil, nil, &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	return resp, body, nil
}

// StatusError is an error response from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

func filenameFrom(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
