// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeaderName = "x-request-id"

	OutgoingRequestMessage  = "outgoing request"
	RequestCompletedMessage = "request completed"
	RequestFailedMessage    = "request failed"
)

// httpInfo is the structured payload attached to request log lines.
type httpInfo struct {
	Request  *request  `json:"request,omitempty"`
	Response *response `json:"response,omitempty"`
}

type request struct {
	Method    string `json:"method,omitempty"`
	URL       string `json:"url,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

type response struct {
	StatusCode    int   `json:"statusCode,omitempty"`
	ContentLength int64 `json:"contentLength,omitempty"`
}

// transport logs every request sent through the wrapped RoundTripper.
type transport struct {
	next   http.RoundTripper
	logger Logger
}

// NewTransport wraps next so that each outgoing request is tagged with a request id and
// logged before and after the round trip. A nil next uses http.DefaultTransport.
func NewTransport(next http.RoundTripper, logger Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}

	return &transport{next: next, logger: logger}
}

// RequestID returns the request id carried by req, generating a new one when absent.
func RequestID(req *http.Request) string {
	if requestID := req.Header.Get(requestIDHeaderName); requestID != "" {
		return requestID
	}

	// Generate a random uuid string. e.g. 16c9c1f2-c001-40d3-bbfe-48857367e7b5
	requestID, err := uuid.NewRandom()
	if err != nil {
		panic(fmt.Errorf("error generating request id: %w", err))
	}
	return requestID.String()
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := RequestID(req)

	// RoundTrippers must not modify the original request
	req = req.Clone(req.Context())
	req.Header.Set(requestIDHeaderName, requestID)

	log := t.logger.WithName("request").With("requestId", requestID)
	reqInfo := &request{
		Method:    req.Method,
		URL:       req.URL.Redacted(),
		UserAgent: req.Header.Get("User-Agent"),
	}

	log.Trace(OutgoingRequestMessage, "http", httpInfo{Request: reqInfo})

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := float64(time.Since(start).Milliseconds())
	if err != nil {
		log.Debug(RequestFailedMessage, "http", httpInfo{Request: reqInfo}, "error", err.Error(), "responseTime", elapsed)
		return nil, err
	}

	log.Debug(RequestCompletedMessage,
		"http", httpInfo{
			Request: reqInfo,
			Response: &response{
				StatusCode:    resp.StatusCode,
				ContentLength: resp.ContentLength,
			},
		},
		"responseTime", elapsed,
	)

	return resp, nil
}
