package vk

import (
	"context"
	"encoding/json"

	"github.com/SevereCloud/vksdk/v2/api"
)

// Messages method group.
type Messages struct {
	c *Client
}

// withContext copies params so that the caller's map is left intact.
func withContext(ctx context.Context, params api.Params) api.Params {
	p := make(api.Params, len(params)+1)
	for key, value := range params {
		p[key] = value
	}
	return p.WithContext(ctx)
}

// Send a message; returns the message id (private dialogs only).
//
// https://dev.vk.com/method/messages.send
func (m *Messages) Send(ctx context.Context, params api.Params) (int, error) {
	return m.c.API.MessagesSend(withContext(ctx, params))
}

// Edit a message.
//
// https://dev.vk.com/method/messages.edit
func (m *Messages) Edit(ctx context.Context, params api.Params) error {
	_, err := m.c.API.MessagesEdit(withContext(ctx, params))
	return err
}

// Pin the message in the conversation.
func (m *Messages) Pin(ctx context.Context, peerID, conversationMessageID int64) error {
	_, err := m.c.API.Request("messages.pin", withContext(ctx, api.Params{
		"peer_id":                 peerID,
		"conversation_message_id": conversationMessageID,
	}))
	return err
}

// Unpin the conversation message.
func (m *Messages) Unpin(ctx context.Context, peerID int64) error {
	_, err := m.c.API.MessagesUnpin(withContext(ctx, api.Params{
		"peer_id": peerID,
	}))
	return err
}

// SendMessageEventAnswer responds to a callback button press.
// eventData is a JSON string, raw JSON or a value to encode; nil just confirms.
//
// https://dev.vk.com/method/messages.sendMessageEventAnswer
func (m *Messages) SendMessageEventAnswer(ctx context.Context, eventID string, userID, peerID int64, eventData any) error {
	params := api.Params{
		"event_id": eventID,
		"user_id":  userID,
		"peer_id":  peerID,
	}
	if eventData != nil {
		data, err := jsonString(eventData)
		if err != nil {
			return err
		}
		params["event_data"] = data
	}
	_, err := m.c.API.MessagesSendMessageEventAnswer(withContext(ctx, params))
	return err
}

// jsonString encodes v unless it is JSON already.
func jsonString(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case json.RawMessage:
		return string(v), nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
