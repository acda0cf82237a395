package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/crmarques/intersync/debugctx"
	"github.com/crmarques/intersync/faults"
	"github.com/crmarques/intersync/resource"
	"github.com/crmarques/intersync/signature"
)

// Response is one decoded API exchange. TraceID is the server-side
// correlation id surfaced alongside the payload.
type Response struct {
	Status  int
	Header  http.Header
	Body    resource.Value
	TraceID string
}

// Results extracts the collection envelope's Results list, when present.
func (r Response) Results() ([]resource.Body, bool) {
	obj, ok := r.Body.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, present := obj["Results"]
	if !present {
		return nil, false
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	results := make([]resource.Body, 0, len(list))
	for _, entry := range list {
		body, ok := entry.(map[string]any)
		if !ok {
			return nil, false
		}
		results = append(results, body)
	}
	return results, true
}

// BodyMap returns the response body as a resource body, or nil when the body
// was empty or not an object.
func (r Response) BodyMap() resource.Body {
	body, _ := r.Body.(map[string]any)
	return body
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, "")
}

func (c *Client) Post(ctx context.Context, path string, body resource.Value) (Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body, MediaTypeJSON)
}

// Patch updates an individual resource. An empty contentType defaults to
// plain JSON; MediaTypeJSONPatch selects json-patch semantics.
func (c *Client) Patch(ctx context.Context, path string, body resource.Value, contentType string) (Response, error) {
	if contentType == "" {
		contentType = MediaTypeJSON
	}
	return c.do(ctx, http.MethodPatch, path, nil, body, contentType)
}

func (c *Client) Delete(ctx context.Context, path string) (Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body resource.Value, contentType string) (Response, error) {
	payload, err := encodeRequestBody(method, body)
	if err != nil {
		return Response{}, err
	}

	requestID := uuid.NewString()
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = c.initialBackoff

	serverRetried := false
	for attempt := 1; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return Response{}, transportError("request cancelled while rate limited", err)
			}
		}

		response, err := c.attempt(ctx, requestID, method, path, query, payload, contentType)
		if err == nil {
			return response, nil
		}
		if !faults.Retryable(err) {
			return Response{}, err
		}

		if faults.StatusOf(err) >= 500 {
			// Server errors get a single retry; anything more belongs to the
			// remote operator, not this client.
			if serverRetried {
				return Response{}, err
			}
			serverRetried = true
		} else if attempt >= c.maxAttempts {
			return Response{}, transportError(
				fmt.Sprintf("request failed after %d attempts", c.maxAttempts), err)
		}

		c.metrics.observeRetry(method)
		c.log.V(1).Info("retrying request", "id", requestID, "method", method, "path", path, "attempt", attempt)

		timer := time.NewTimer(schedule.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return Response{}, transportError("request cancelled", ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) attempt(ctx context.Context, requestID, method, path string, query url.Values, payload []byte, contentType string) (Response, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + path
	rawQuery := ""
	if len(query) > 0 {
		rawQuery = query.Encode()
	}
	target.RawQuery = rawQuery

	// Each attempt signs a fresh Date so clock-skew windows are measured
	// from the wire attempt, not from the first try.
	date := c.now().UTC().Format(http.TimeFormat)
	canonical := signature.Build(method, target.Path, rawQuery, c.baseURL.Host, date, payload)
	signed, err := signature.Sign(c.cred, canonical)
	if err != nil {
		return Response{}, err
	}

	var bodyReader io.Reader
	if len(payload) > 0 {
		bodyReader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, target.String(), bodyReader)
	if err != nil {
		return Response{}, internalError("failed to create request", err)
	}
	request.Host = c.baseURL.Host
	request.Header.Set("Accept", MediaTypeJSON)
	if len(payload) > 0 {
		request.Header.Set("Content-Type", contentType)
	}
	request.Header.Set("Date", date)
	request.Header.Set("Digest", canonical.DigestHeader())
	request.Header.Set("Authorization", signature.AuthorizationHeader(c.cred.KeyID(), signed))

	debugctx.Printf(ctx, "http request id=%s method=%q url=%q", requestID, method, redactURL(&target))
	c.log.V(1).Info("issuing signed request", "id", requestID, "method", method, "path", path)

	start := time.Now()
	response, err := c.http.Do(request)
	if err != nil {
		c.metrics.observeRequest(method, "error", time.Since(start))
		debugctx.Printf(ctx, "http request failed id=%s method=%q error=%v", requestID, method, err)
		return Response{}, transportError("remote request failed", err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		c.metrics.observeRequest(method, "error", time.Since(start))
		return Response{}, transportError("failed to read remote response body", err)
	}

	c.metrics.observeRequest(method, strconv.Itoa(response.StatusCode), time.Since(start))
	debugctx.Printf(ctx, "http response id=%s method=%q status=%d", requestID, method, response.StatusCode)

	if response.StatusCode >= http.StatusBadRequest {
		return Response{}, classifyStatusError(response.StatusCode, data)
	}

	value, err := decodeJSONResponse(data)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Status:  response.StatusCode,
		Header:  response.Header.Clone(),
		Body:    value,
		TraceID: response.Header.Get(traceIDHeader),
	}, nil
}

func encodeRequestBody(method string, body resource.Value) ([]byte, error) {
	if method == http.MethodGet || method == http.MethodDelete {
		return nil, nil
	}

	normalized, err := resource.Normalize(body)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, validationError("failed to encode JSON request body", err)
	}
	return encoded, nil
}

func decodeJSONResponse(body []byte) (resource.Value, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, validationError("response body is not valid JSON", err)
	}
	return resource.Normalize(value)
}

func redactURL(value *url.URL) string {
	if value == nil {
		return ""
	}

	cloned := *value
	cloned.User = nil

	queryValues := cloned.Query()
	if len(queryValues) > 0 {
		for key, values := range queryValues {
			redacted := make([]string, len(values))
			for idx := range values {
				redacted[idx] = "<redacted>"
			}
			queryValues[key] = redacted
		}
		cloned.RawQuery = queryValues.Encode()
	}

	return cloned.String()
}
