package longpoll

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Fields names the envelope members.
// They belong to the provider, so they are configuration.
type Fields struct {
	Ts      string
	Updates string
	Failed  string
}

// DefaultFields as documented for VK Bots Long Poll API.
var DefaultFields = Fields{
	Ts:      "ts",
	Updates: "updates",
	Failed:  "failed",
}

func (f Fields) orDefault() Fields {
	if f.Ts == "" {
		f.Ts = DefaultFields.Ts
	}
	if f.Updates == "" {
		f.Updates = DefaultFields.Updates
	}
	if f.Failed == "" {
		f.Failed = DefaultFields.Failed
	}
	return f
}

// Envelope is the result of a single poll request.
type Envelope struct {
	// Ts is the next cursor, if HasTs
	Ts    Ts
	HasTs bool
	// Updates in arrival order
	Updates []Event
	// Failed code; zero on success
	Failed int
	// RequestTs is the cursor the request was issued with
	RequestTs Ts
}

// Event is one update record.
// The core passes it through; Object is decoded by the consumer.
type Event struct {
	Type    string          `json:"type"`
	Object  json.RawMessage `json:"object,omitempty"`
	GroupID int64           `json:"group_id,omitempty"`
	EventID string          `json:"event_id,omitempty"`
	Version string          `json:"v,omitempty"`
	// Extra holds members not listed above
	Extra map[string]json.RawMessage `json:"-"`
}

var eventFields = []string{"type", "object", "group_id", "event_id", "v"}

// UnmarshalJSON decodes the known members and keeps the rest in Extra.
func (e *Event) UnmarshalJSON(data []byte) error {
	type event Event
	var known event
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, name := range eventFields {
		delete(all, name)
	}
	if len(all) == 0 {
		all = nil
	}
	*e = Event(known)
	e.Extra = all
	return nil
}

// MarshalJSON writes Extra members back next to the known ones.
func (e Event) MarshalJSON() ([]byte, error) {
	type event Event
	data, err := json.Marshal(event(e))
	if err != nil || len(e.Extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err = json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for name, value := range e.Extra {
		if _, ok := all[name]; !ok {
			all[name] = value
		}
	}
	return json.Marshal(all)
}

var errNoTs = errors.New("envelope has neither ts nor failed")

// decodeEnvelope parses the poll response body using the configured member names.
func decodeEnvelope(body []byte, fields Fields, requestTs Ts) (*Envelope, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	env := &Envelope{RequestTs: requestTs}
	if raw, ok := doc[fields.Failed]; ok {
		if err := json.Unmarshal(raw, &env.Failed); err != nil {
			return nil, errors.New(fields.Failed + ": " + err.Error())
		}
	}
	if raw, ok := doc[fields.Ts]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &env.Ts); err != nil {
			return nil, err
		}
		env.HasTs = true
	}
	if raw, ok := doc[fields.Updates]; ok {
		if err := json.Unmarshal(raw, &env.Updates); err != nil {
			return nil, errors.New(fields.Updates + ": " + err.Error())
		}
	}
	if env.Failed == 0 && !env.HasTs {
		return nil, errNoTs
	}
	return env, nil
}

func (e *Envelope) String() string {
	if e.Failed != 0 {
		return "failed=" + strconv.Itoa(e.Failed) + " ts=" + e.Ts.String()
	}
	return "ts=" + e.Ts.String() + " updates=" + strconv.Itoa(len(e.Updates))
}
