// Package storetest provides a scripted in-memory store.Client.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"charlie-pos/store"
)

// Call is one recorded request. Payload holds the compact JSON the client would have sent.
type Call struct {
	Action  string
	Payload json.RawMessage
}

// Reply scripts the outcome of an action.
type Reply struct {
	Data        any
	OrderNumber int
	Reason      string // non-empty with Fail
	Fail        bool
	Err         error // transport-level error, returned as is
}

// Fake answers actions from scripted replies. Unscripted actions succeed with no data.
type Fake struct {
	mu      sync.Mutex
	replies map[string][]Reply
	last    map[string]Reply
	calls   []Call
}

func New() *Fake {
	return &Fake{replies: make(map[string][]Reply), last: make(map[string]Reply)}
}

// On queues replies for action. Once the queue is drained the most recent reply repeats.
func (f *Fake) On(action string, replies ...Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[action] = append(f.replies[action], replies...)
	return f
}

func (f *Fake) Call(ctx context.Context, action string, payload any) (*store.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrConnection, action, err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{Action: action, Payload: raw})
	reply := f.last[action]
	if q := f.replies[action]; len(q) > 0 {
		reply = q[0]
		f.replies[action] = q[1:]
		f.last[action] = reply
	}
	f.mu.Unlock()

	if reply.Err != nil {
		return nil, reply.Err
	}
	if reply.Fail {
		return nil, &store.FailureError{Action: action, Reason: reply.Reason}
	}
	resp := &store.Response{Success: true, OrderNumber: reply.OrderNumber}
	if reply.Data != nil {
		data, err := json.Marshal(reply.Data)
		if err != nil {
			return nil, err
		}
		resp.Data = data
	}
	return resp, nil
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls for one action.
func (f *Fake) CallsTo(action string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Action == action {
			out = append(out, c)
		}
	}
	return out
}
