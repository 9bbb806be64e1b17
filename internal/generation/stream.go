package generation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loom/internal/logging"
)

const maxLineLength = 1024 * 1024

// retryBackoff is the first delay between connection attempts; it doubles on
// each retry.
var retryBackoff = time.Second

// lineDecoder interprets one line of a streaming response body. It returns the
// text fragment carried by the line (possibly empty), whether the stream has
// finished, and any provider error reported in-band.
type lineDecoder func(line string) (text string, done bool, err error)

// streamRequest describes one streaming HTTP call.
type streamRequest struct {
	tag     string // log prefix, e.g. "[Anthropic]"
	url     string
	headers map[string]string
	body    any
	timeout time.Duration
	retries int
}

// openStream posts req and feeds each response line to decode. Connection
// failures and 429 responses are retried up to req.retries times before the
// body is read; once the first line has been consumed nothing is retried. A
// body that ends before the decoder reports done is an error.
func openStream(ctx context.Context, client *http.Client, req streamRequest, decode lineDecoder) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		if _, hasDeadline := ctx.Deadline(); !hasDeadline && req.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, req.timeout)
			defer cancel()
		}

		startTime := time.Now()

		jsonData, err := json.Marshal(req.body)
		if err != nil {
			errorChan <- fmt.Errorf("failed to marshal request: %w", err)
			return
		}

		resp, err := connect(ctx, client, req, jsonData)
		if err != nil {
			logging.APIError("%s Stream: %v", req.tag, err)
			errorChan <- err
			return
		}
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

		scanDone := make(chan struct{})
		scanErrChan := make(chan error, 1)

		go func() {
			defer close(scanDone)
			finished := false
			for scanner.Scan() {
				text, done, err := decode(scanner.Text())
				if err != nil {
					scanErrChan <- err
					return
				}
				if text != "" {
					select {
					case contentChan <- text:
					case <-ctx.Done():
						return
					}
				}
				if done {
					finished = true
					return
				}
			}
			if err := scanner.Err(); err != nil {
				scanErrChan <- err
				return
			}
			if !finished && ctx.Err() == nil {
				scanErrChan <- fmt.Errorf("stream ended before completion: %w", io.ErrUnexpectedEOF)
			}
		}()

		select {
		case <-scanDone:
			select {
			case err := <-scanErrChan:
				logging.APIError("%s Stream: stream error after %v: %v", req.tag, time.Since(startTime), err)
				errorChan <- fmt.Errorf("stream error: %w", err)
			default:
				if ctx.Err() != nil {
					errorChan <- ctx.Err()
					return
				}
				logging.APIDebug("%s Stream: completed in %v", req.tag, time.Since(startTime))
			}
		case <-ctx.Done():
			resp.Body.Close()
			<-scanDone
			logging.APIWarn("%s Stream: cancelled after %v", req.tag, time.Since(startTime))
			errorChan <- ctx.Err()
		}
	}()

	return contentChan, errorChan
}

// connect performs the request, retrying req.retries times, and returns a 200
// response.
func connect(ctx context.Context, client *http.Client, req streamRequest, body []byte) (*http.Response, error) {
	retries := max(req.retries, 0)
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := retryBackoff * time.Duration(1<<uint(attempt-1))
			logging.APIWarn("%s Stream: retry %d/%d in %v: %v", req.tag, attempt, retries, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range req.headers {
			httpReq.Header.Set(k, v)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limit exceeded (429): %s", strings.TrimSpace(string(respBody)))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return resp, nil
	}
	if retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// sseData extracts the payload of an SSE "data:" line.
func sseData(line string) (string, bool) {
	if !strings.HasPrefix(line, "data:") {
		return "", false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	return data, data != ""
}
