// Package protocol defines the records exchanged between the command layer
// and a document host, the error taxonomy shared by both sides, and the
// two-phase batch runner.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Response status literals.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Request is one command sent to the host.
type Request struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Response is the host's reply to a Request.
type Response struct {
	Status  string          `json:"status"`
	Result  json.RawMessage `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`

	Kind        string `json:"kind,omitempty"`
	Completed   int    `json:"completed,omitempty"`
	FailedIndex int    `json:"failed_index,omitempty"`
}

// Success builds a success response around result.
func Success(result any) (*Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &Response{Status: StatusSuccess, Result: raw}, nil
}

// Failure builds an error response, keeping the structured fields of err.
func Failure(err error) *Response {
	resp := &Response{Status: StatusError, Message: err.Error(), Kind: HostError.String()}
	var e *Error
	if errors.As(err, &e) {
		resp.Kind = e.Kind.String()
		resp.Completed = e.Completed
		resp.FailedIndex = e.FailedIndex
	}
	return resp
}

// Err converts an error response back into an *Error. It returns nil for a
// success response.
func (r *Response) Err() error {
	if r.Status == StatusSuccess {
		return nil
	}
	msg := r.Message
	if msg == "" {
		msg = "host returned status " + r.Status
	}
	return &Error{
		Kind:        ParseKind(r.Kind),
		Message:     msg,
		Completed:   r.Completed,
		FailedIndex: r.FailedIndex,
	}
}

// Selector addresses one object by id or by name.
type Selector struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// IsZero reports whether the selector names nothing.
func (s Selector) IsZero() bool {
	return s.ID == "" && s.Name == ""
}

func (s Selector) String() string {
	if s.ID != "" {
		return "id " + s.ID
	}
	return fmt.Sprintf("name %q", s.Name)
}

// SelectorFrom reads id/name from a parameter record. Non-string values are
// an InvalidArgument.
func SelectorFrom(params map[string]any) (Selector, error) {
	var s Selector
	if v, ok := params["id"]; ok && v != nil {
		str, ok := v.(string)
		if !ok {
			return s, Invalidf("id must be a string")
		}
		s.ID = str
	}
	if v, ok := params["name"]; ok && v != nil {
		str, ok := v.(string)
		if !ok {
			return s, Invalidf("name must be a string")
		}
		s.Name = str
	}
	if s.IsZero() {
		return s, Invalidf("requires 'id' or 'name'")
	}
	return s, nil
}
