package session

import (
	"bytes"
	"io"
	"net/http"
)

const maxErrorBody = 1 << 20

// Transport attaches the session token to outgoing requests and records a
// message for every failed one. A 401 response logs the session out.
type Transport struct {
	Base    http.RoundTripper
	Session *Store
	Errors  *ErrorState
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	if token := t.Session.Token(); token != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		t.record(err.Error())
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if readErr != nil {
		body = nil
	}

	if resp.StatusCode >= 400 {
		t.record(Describe(resp.StatusCode, body))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		_ = t.Session.Clear()
	}
	return resp, nil
}

func (t *Transport) record(message string) {
	if t.Errors != nil {
		t.Errors.Set(GlobalKey, message)
	}
}
