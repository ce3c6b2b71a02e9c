package pricedb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// contains http utils to deal with remote quote sources.

// Get performs an HTTP GET request and returns the response body.
//
// Every failure, transport or status, wraps ErrQuoteUnavailable.
func Get(ctx context.Context, client *http.Client, addr string, header http.Header) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot create http request: %w", ErrQuoteUnavailable, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuoteUnavailable, err)
	}
	defer resp.Body.Close()
	log.Printf("%v %v%v %v", req.Method, req.URL.Host, req.URL.Path, resp.Status)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: cannot http GET %v%v: %v", ErrQuoteUnavailable, req.URL.Host, req.URL.Path, resp.Status)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("%w: cannot read http body: %w", ErrQuoteUnavailable, err)
	}
	return buf.Bytes(), nil
}

// GetJSON performs an HTTP GET request and unmarshals the JSON response into data.
func GetJSON(ctx context.Context, client *http.Client, addr string, header http.Header, data any) error {
	body, err := Get(ctx, client, addr, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("%w: invalid json: %w", ErrQuoteUnavailable, err)
	}
	return nil
}
