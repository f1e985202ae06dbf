package vk

import (
	"context"
	"encoding/json"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/pkg/errors"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

// Update types decoded by Updates.
const (
	MessageNewType   = "message_new"
	MessageEventType = "message_event"
)

// Updates routes long poll events to typed handlers
// bound to the Client.
type Updates struct {
	*longpoll.Router
	client *Client
}

// Updates returns an empty router for the group events.
func (c *Client) Updates() *Updates {
	return &Updates{
		Router: longpoll.NewRouter(),
		client: c,
	}
}

// OnMessage handles `message_new`.
func (u *Updates) OnMessage(fn func(ctx context.Context, msg *IncomingMessage) error) *Updates {
	u.On(MessageNewType, longpoll.HandlerFunc(func(ctx context.Context, event longpoll.Event) error {
		msg := &IncomingMessage{GroupID: event.GroupID, client: u.client}
		if err := json.Unmarshal(event.Object, &msg.MessageNew); err != nil {
			return errors.Wrap(err, event.Type)
		}
		return fn(ctx, msg)
	}))
	return u
}

// OnMessageEvent handles `message_event`.
func (u *Updates) OnMessageEvent(fn func(ctx context.Context, event *IncomingEvent) error) *Updates {
	u.On(MessageEventType, longpoll.HandlerFunc(func(ctx context.Context, event longpoll.Event) error {
		e := &IncomingEvent{GroupID: event.GroupID, client: u.client}
		if err := json.Unmarshal(event.Object, &e.MessageEvent); err != nil {
			return errors.Wrap(err, event.Type)
		}
		return fn(ctx, e)
	}))
	return u
}

// IncomingMessage is a new message bound to the client.
type IncomingMessage struct {
	MessageNew
	GroupID int64
	client  *Client
}

// Reply sends the message to the same conversation; returns the message id.
func (m *IncomingMessage) Reply(ctx context.Context, reply *OutgoingMessage) (int, error) {
	send := *reply
	send.PeerID = m.Message.PeerID
	params, err := send.Params()
	if err != nil {
		return 0, err
	}
	return m.client.Messages.Send(ctx, params)
}

// Edit replaces text of the message. Only messages sent by the group can be edited.
func (m *IncomingMessage) Edit(ctx context.Context, text string, params api.Params) error {
	edit := api.Params{
		"peer_id":                 m.Message.PeerID,
		"conversation_message_id": m.Message.ConversationMessageID,
		"message":                 text,
	}
	for key, value := range params {
		edit[key] = value
	}
	return m.client.Messages.Edit(ctx, edit)
}

// Pin the message in the conversation.
func (m *IncomingMessage) Pin(ctx context.Context) error {
	return m.client.Messages.Pin(ctx, m.Message.PeerID, m.Message.ConversationMessageID)
}

// Unpin the conversation message.
func (m *IncomingMessage) Unpin(ctx context.Context) error {
	return m.client.Messages.Unpin(ctx, m.Message.PeerID)
}

// IncomingEvent is a callback button press bound to the client.
type IncomingEvent struct {
	MessageEvent
	GroupID int64
	client  *Client
}

// Answer the event with the given event_data.
func (e *IncomingEvent) Answer(ctx context.Context, data any) error {
	return e.client.Messages.SendMessageEventAnswer(ctx, e.EventID, e.UserID, e.PeerID, data)
}

// ShowSnackbar with the text to the user.
func (e *IncomingEvent) ShowSnackbar(ctx context.Context, text string) error {
	return e.Answer(ctx, map[string]any{
		"type": "show_snackbar",
		"text": text,
	})
}

// OpenLink on the user's side.
func (e *IncomingEvent) OpenLink(ctx context.Context, link string) error {
	return e.Answer(ctx, map[string]any{
		"type": "open_link",
		"link": link,
	})
}

// OpenApp opens the VK Mini App; ownerID and hash are optional.
func (e *IncomingEvent) OpenApp(ctx context.Context, appID, ownerID int64, hash string) error {
	data := map[string]any{
		"type":   "open_app",
		"app_id": appID,
	}
	if ownerID != 0 {
		data["owner_id"] = ownerID
	}
	if hash != "" {
		data["hash"] = hash
	}
	return e.Answer(ctx, data)
}

// AnswerFromPayload answers with the button payload as event_data.
func (e *IncomingEvent) AnswerFromPayload(ctx context.Context) error {
	if len(e.Payload) == 0 {
		return e.Answer(ctx, nil)
	}
	return e.Answer(ctx, e.Payload)
}

// Reply sends a message to the conversation of the event.
func (e *IncomingEvent) Reply(ctx context.Context, reply *OutgoingMessage) (int, error) {
	send := *reply
	send.PeerID = e.PeerID
	params, err := send.Params()
	if err != nil {
		return 0, err
	}
	return e.client.Messages.Send(ctx, params)
}
