package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/stemhub/internal/shared"
)

// PayloadKind tags the shape of an error response body.
type PayloadKind int

const (
	PayloadEmpty   PayloadKind = iota // no body, or a body that is not JSON
	PayloadString                     // a bare JSON string
	PayloadMessage                    // {"message": ...}
	PayloadErrors                     // {"errors": [...]} or {"errors": {...}}
	PayloadUnknown                    // any other JSON value
)

// Payload is a classified error response body.
//
// Text holds the extracted message for every kind except [PayloadEmpty] and [PayloadUnknown].
type Payload struct {
	Kind PayloadKind
	Text string
	Raw  json.RawMessage
}

// ParsePayload classifies body using the precedence string, message, errors.
//
// A null or empty message falls through to errors.
func ParsePayload(body []byte) Payload {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		return Payload{Kind: PayloadEmpty}
	}
	raw := json.RawMessage(body)

	if body[0] == '"' {
		var s string
		_ = json.Unmarshal(body, &s)
		return Payload{Kind: PayloadString, Text: s, Raw: raw}
	}
	if body[0] != '{' {
		return Payload{Kind: PayloadUnknown, Raw: raw}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Payload{Kind: PayloadUnknown, Raw: raw}
	}

	if msg, ok := fields["message"]; ok && !isNull(msg) {
		if text := renderText(msg); text != "" {
			return Payload{Kind: PayloadMessage, Text: text, Raw: raw}
		}
	}
	if errs, ok := fields["errors"]; ok {
		if first, ok := firstError(errs); ok {
			return Payload{Kind: PayloadErrors, Text: first, Raw: raw}
		}
	}
	return Payload{Kind: PayloadUnknown, Raw: raw}
}

// ErrorMessage renders p as a human-readable message, falling back when the body carried nothing usable.
func ErrorMessage(p Payload, fallback string) string {
	switch p.Kind {
	case PayloadString, PayloadMessage, PayloadErrors:
		if p.Text != "" {
			return p.Text
		}
	case PayloadUnknown:
		var buf bytes.Buffer
		if err := json.Compact(&buf, p.Raw); err == nil {
			return buf.String()
		}
	}
	return fallback
}

// ErrorText returns the message for err: the extracted payload message of an [*APIError],
// or fallback for transport and decoding failures.
func ErrorText(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ErrorMessage(apiErr.Payload, fallback)
	}
	return fallback
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Status  int
	Message string
	Payload Payload
}

func newAPIError(status int, body []byte) *APIError {
	payload := ParsePayload(body)
	return &APIError{
		Status:  status,
		Message: ErrorMessage(payload, http.StatusText(status)),
		Payload: payload,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v (status %d): %s", shared.ErrAPIRequest, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// firstError returns the first element of an errors list, or the first value of an errors
// object in document order. A list value inside an object yields its own first element.
func firstError(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
			return "", false
		}
		return renderText(items[0]), true
	case '{':
		value, ok := firstObjectValue(raw)
		if !ok {
			return "", false
		}
		if v := bytes.TrimSpace(value); len(v) > 0 && v[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(v, &items); err == nil && len(items) > 0 {
				return renderText(items[0]), true
			}
		}
		return renderText(value), true
	case '"':
		return renderText(raw), true
	}
	return "", false
}

// firstObjectValue walks the token stream so keys keep their document order.
func firstObjectValue(raw json.RawMessage) (json.RawMessage, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}
	if !dec.More() {
		return nil, false
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}

	var value json.RawMessage
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	return value, true
}

// renderText returns a JSON string's contents, or the compact JSON text of any other value.
func renderText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
