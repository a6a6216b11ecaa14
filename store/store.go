// Package store talks to the order/catalog store behind a named-action contract.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Actions understood by the store.
const (
	ActionGetProducts        = "getProducts"
	ActionGetCategories      = "getCategories"
	ActionGetPredefinedNotes = "getPredefinedNotes"
	ActionCreateOrder        = "createOrder"
	ActionCreateProduct      = "createProduct"
	ActionUpdateProduct      = "updateProduct"
	ActionDeleteProduct      = "deleteProduct"
	ActionCreateCategory     = "createCategory"
	ActionUpdateCategory     = "updateCategory"
	ActionDeleteCategory     = "deleteCategory"
	ActionGetOrders          = "getOrders"
	ActionDeleteOrder        = "deleteOrder"
)

var (
	// ErrConnection is returned when the store could not be reached at all.
	ErrConnection = errors.New("store: connection error")
	// ErrMalformedResponse is returned when the store replied with something that is not a response object.
	ErrMalformedResponse = errors.New("store: malformed response")
)

// Client issues one action per call.
type Client interface {
	Call(ctx context.Context, action string, payload any) (*Response, error)
}

// Response is a successful store reply. Failed replies never reach callers as a Response; they
// surface as *FailureError.
type Response struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data,omitempty"`
	OrderNumber int             `json:"orderNumber,omitempty"`
	Message     string          `json:"message,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Decode unmarshals Data into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrMalformedResponse, err)
	}
	return nil
}

// FailureError is a reply whose success flag was not true.
type FailureError struct {
	Action string
	Reason string
}

func (e *FailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("store: %s failed", e.Action)
	}
	return fmt.Sprintf("store: %s failed: %s", e.Action, e.Reason)
}

// IsFailure reports whether err is a store-side rejection (as opposed to a transport problem).
func IsFailure(err error) bool {
	var fe *FailureError
	return errors.As(err, &fe)
}

// parseResponse validates a raw reply object and turns success != true into a FailureError.
func parseResponse(action string, raw []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, action, err)
	}
	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = resp.Message
		}
		return nil, &FailureError{Action: action, Reason: reason}
	}
	return &resp, nil
}

// encodePayload returns the compact JSON for payload, or "" when there is nothing to send.
func encodePayload(payload any) (string, error) {
	if payload == nil {
		return "", nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, b); err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	switch compact.String() {
	case "null", "{}":
		return "", nil
	}
	return compact.String(), nil
}
