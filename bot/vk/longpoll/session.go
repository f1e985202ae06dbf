// Package longpoll consumes a VK group Bots Long Poll stream.
//
// A Poller owns one Session per group. It negotiates the session, polls the
// server for updates since the session cursor (ts), classifies the result
// envelope and hands the updates, in arrival order, to a Handler.
package longpoll

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Ts is the long poll cursor.
// The server encodes it either as a JSON number or as a decimal string.
type Ts uint64

func (ts Ts) String() string {
	return strconv.FormatUint(uint64(ts), 10)
}

// UnmarshalJSON accepts 101 and "101".
func (ts *Ts) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 1 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("longpoll: invalid ts %s", data)
	}
	*ts = Ts(v)
	return nil
}

// Session is the {server, key, ts} triple issued by groups.getLongPollServer.
type Session struct {
	// Server URI to poll
	Server string `json:"server"`
	// Key is an opaque access token for the Server
	Key string `json:"key"`
	// Ts is the current cursor
	Ts Ts `json:"ts"`
}

// WithTs returns a copy of the session positioned at the given cursor.
func (s Session) WithTs(ts Ts) Session {
	s.Ts = ts
	return s
}

// IsValid reports whether the session can be polled.
func (s Session) IsValid() bool {
	return s.Server != "" && s.Key != ""
}

// Negotiator obtains a fresh Session for the group.
// Implementations must be idempotent and fail with *NegotiationError.
type Negotiator interface {
	Negotiate(ctx context.Context, groupID int64) (Session, error)
}

// NegotiatorFunc adapts an ordinary function to the Negotiator interface.
type NegotiatorFunc func(ctx context.Context, groupID int64) (Session, error)

func (fn NegotiatorFunc) Negotiate(ctx context.Context, groupID int64) (Session, error) {
	return fn(ctx, groupID)
}
