package vk

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/micro/micro/v3/service/errors"
)

// Message of the `message_new`, `message_reply` and `message_edit` updates.
//
// https://dev.vk.com/reference/objects/message
type Message struct {
	// ID of message ( !GENERAL )
	ID int64 `json:"id,omitempty"`
	// Time sent (!UNIX)
	Date int64 `json:"date,omitempty"`
	// ID of peer that messaged
	PeerID int64 `json:"peer_id,omitempty"`
	// ID of user
	FromID int64 `json:"from_id,omitempty"`
	// Direction:
	// 0 - received;
	// 1 - sent;
	Out  int    `json:"out,omitempty"`
	Text string `json:"text,omitempty"`
	// Payload of the keyboard button; JSON string
	Payload string `json:"payload,omitempty"`
	// ID of message in dialogue ( !LOCAL ) ( AUTOINCREMENT )
	ConversationMessageID int64 `json:"conversation_message_id,omitempty"`
	// Attachments of incoming message
	Attachments []Attachment `json:"attachments,omitempty"`
	// Message replied to
	ReplyMessage *Message `json:"reply_message,omitempty"`
	// Forwarded messages
	FwdMessages []Message    `json:"fwd_messages,omitempty"`
	Geo         *Geolocation `json:"geo,omitempty"`
	// Service action of the chat
	Action *MessageAction `json:"action,omitempty"`
	// Is message checked as important
	Important bool `json:"important,omitempty"`
	// Unique number that used to know the uniqueness of message ( only for sent messages )
	RandomID int64 `json:"random_id,omitempty"`

	// Extra holds members not listed above
	Extra map[string]json.RawMessage `json:"-"`
}

// MessageAction of the chat service message.
type MessageAction struct {
	// chat_invite_user, chat_kick_user, chat_pin_message ...
	Type     string `json:"type"`
	MemberID int64  `json:"member_id,omitempty"`
	Text     string `json:"text,omitempty"`
}

// IsPrivate reports whether the message was sent in a private dialog.
func (m *Message) IsPrivate() bool {
	return m.PeerID < 2e9
}

// DecodePayload unmarshals the button payload into v.
func (m *Message) DecodePayload(v any) error {
	if m.Payload == "" {
		return errors.BadRequest(
			"vk.message.payload.empty",
			"vk: message has no payload",
		)
	}
	return json.Unmarshal([]byte(m.Payload), v)
}

func (m *Message) UnmarshalJSON(data []byte) (err error) {
	type message Message
	if err = json.Unmarshal(data, (*message)(m)); err != nil {
		return err
	}
	m.Extra, err = extraFields(data, messageFields)
	return err
}

// ClientInfo describes opportunities of the client
type ClientInfo struct {
	ButtonActions  []string `json:"button_actions,omitempty"`
	Keyboard       bool     `json:"keyboard,omitempty"`
	InlineKeyboard bool     `json:"inline_keyboard,omitempty"`
	Carousel       bool     `json:"carousel,omitempty"`
	LangID         int      `json:"lang_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Supports reports whether the client can handle the button action type.
func (c *ClientInfo) Supports(action string) bool {
	for _, supported := range c.ButtonActions {
		if supported == action {
			return true
		}
	}
	return false
}

func (c *ClientInfo) UnmarshalJSON(data []byte) (err error) {
	type clientInfo ClientInfo
	if err = json.Unmarshal(data, (*clientInfo)(c)); err != nil {
		return err
	}
	c.Extra, err = extraFields(data, clientInfoFields)
	return err
}

// MessageNew is the `message_new` update object.
type MessageNew struct {
	Message    Message    `json:"message"`
	ClientInfo ClientInfo `json:"client_info"`
}

// MessageEvent is the `message_event` update object:
// a callback button was pressed.
type MessageEvent struct {
	UserID  int64  `json:"user_id"`
	PeerID  int64  `json:"peer_id"`
	EventID string `json:"event_id"`
	// Payload of the button as is
	Payload               json.RawMessage `json:"payload,omitempty"`
	ConversationMessageID int64           `json:"conversation_message_id,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// IsPrivate reports whether the event was sent in a private dialog.
func (e *MessageEvent) IsPrivate() bool {
	return e.PeerID < 2e9
}

func (e *MessageEvent) UnmarshalJSON(data []byte) (err error) {
	type messageEvent MessageEvent
	if err = json.Unmarshal(data, (*messageEvent)(e)); err != nil {
		return err
	}
	e.Extra, err = extraFields(data, messageEventFields)
	return err
}

type Geolocation struct {
	Type        string       `json:"type,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

var (
	messageFields      = jsonFields(reflect.TypeOf(Message{}))
	clientInfoFields   = jsonFields(reflect.TypeOf(ClientInfo{}))
	messageEventFields = jsonFields(reflect.TypeOf(MessageEvent{}))
)

// jsonFields returns the member names of the struct type.
func jsonFields(typ reflect.Type) map[string]struct{} {
	names := make(map[string]struct{}, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" || !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		names[name] = struct{}{}
	}
	return names
}

// extraFields returns the members of the object not listed in known.
func extraFields(data []byte, known map[string]struct{}) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for name := range all {
		if _, ok := known[name]; ok {
			delete(all, name)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
