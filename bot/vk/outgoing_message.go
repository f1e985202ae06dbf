package vk

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/micro/micro/v3/service/errors"

	"github.com/webitel/vk_longpoll/internal/util"
)

// OutgoingMessage builds messages.send params.
type OutgoingMessage struct {
	// Message receiver (!REQUIRED)
	PeerID int64
	// Text of message
	Text string
	// Attachment for message (only existing media): photo-1_2, doc3_4 ...
	Attachments []string
	// Reply to [message_id]
	ReplyTo int64
	// Payload of the message; JSON
	Payload any
	// BOT Keyboard
	Keyboard *Keyboard
}

// IsValid returns error if message can't be send
func (m *OutgoingMessage) IsValid() error {
	if m.Text == "" && len(m.Attachments) == 0 {
		return errors.BadRequest("vk.message.no_payload", "vk: message doesn't contain payload")
	}
	if m.PeerID == 0 {
		return errors.BadRequest("vk.message.no_receiver", "vk: message doesn't have receiver")
	}
	if m.Keyboard != nil {
		if err := m.Keyboard.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Params of the messages.send request.
func (m *OutgoingMessage) Params() (api.Params, error) {
	if err := m.IsValid(); err != nil {
		return nil, err
	}
	res := api.Params{
		"peer_id": m.PeerID,
	}
	if m.Text != "" {
		res["message"] = m.Text
	}
	if len(m.Attachments) != 0 {
		res["attachment"] = strings.Join(m.Attachments, ",")
	}
	if m.ReplyTo != 0 {
		res["reply_to"] = m.ReplyTo
	}
	if m.Payload != nil {
		payload, err := jsonString(m.Payload)
		if err != nil {
			return nil, err
		}
		res["payload"] = payload
	}
	if m.Keyboard != nil {
		// serialized by the keyboard hook
		res["keyboard"] = m.Keyboard
	}
	return res, nil
}

// Color of the button.
type Color string

const (
	Primary   Color = "primary"
	Secondary Color = "secondary"
	Positive  Color = "positive"
	Negative  Color = "negative"
)

// Button action types.
const (
	ActionText     = "text"
	ActionCallback = "callback"
	ActionOpenLink = "open_link"
	ActionLocation = "location"
	ActionVKPay    = "vkpay"
	ActionOpenApp  = "open_app"
)

const (
	MaxButtons     = 5
	MaxLines       = 10
	MaxLinesInline = 6
)

// Keyboard of the bot message.
//
// Builder methods never panic: the first violated limit is kept
// and reported by Err and JSON, the rest of the chain is ignored.
type Keyboard struct {
	OneTime bool       `json:"one_time"`
	Inline  bool       `json:"inline"`
	Buttons [][]Button `json:"buttons"`

	err error
}

type Button struct {
	Color  Color        `json:"color,omitempty"`
	Action ButtonAction `json:"action"`
}

type ButtonAction struct {
	Type    string `json:"type"`
	Label   string `json:"label,omitempty"`
	Link    string `json:"link,omitempty"`
	Hash    string `json:"hash,omitempty"`
	AppID   int64  `json:"app_id,omitempty"`
	OwnerID int64  `json:"owner_id,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// NewKeyboard with a single empty line.
func NewKeyboard(oneTime, inline bool) *Keyboard {
	return &Keyboard{
		OneTime: oneTime,
		Inline:  inline,
		Buttons: [][]Button{{}},
	}
}

// Empty clears the keyboard; sent as is it removes the current one.
func (k *Keyboard) Empty() *Keyboard {
	k.Buttons = [][]Button{}
	k.err = nil
	return k
}

func (k *Keyboard) maxLines() int {
	if k.Inline {
		return MaxLinesInline
	}
	return MaxLines
}

func (k *Keyboard) fail(id, detail string) *Keyboard {
	if k.err == nil {
		k.err = errors.BadRequest(id, "%s", detail)
	}
	return k
}

// NewLine starts the next line of buttons.
func (k *Keyboard) NewLine() *Keyboard {
	if k.err != nil {
		return k
	}
	if len(k.Buttons) >= k.maxLines() {
		return k.fail("vk.keyboard.lines.limit",
			"vk: too many lines (max "+strconv.Itoa(k.maxLines())+")")
	}
	k.Buttons = append(k.Buttons, []Button{})
	return k
}

func (k *Keyboard) add(button Button, wholeLine bool) *Keyboard {
	if k.err != nil {
		return k
	}
	if len(k.Buttons) == 0 {
		k.Buttons = [][]Button{{}}
	}
	line := &k.Buttons[len(k.Buttons)-1]
	if wholeLine && len(*line) != 0 {
		return k.fail("vk.keyboard.line.busy",
			"vk: "+button.Action.Type+" button takes the entire width of the line")
	}
	if n := len(*line); n >= MaxButtons || (n > 0 && takesLine((*line)[0])) {
		return k.fail("vk.keyboard.buttons.limit",
			"vk: too many buttons (max "+strconv.Itoa(MaxButtons)+")")
	}
	*line = append(*line, button)
	return k
}

func takesLine(b Button) bool {
	switch b.Action.Type {
	case ActionLocation, ActionVKPay, ActionOpenApp:
		return true
	}
	return false
}

func (k *Keyboard) payload(v any) string {
	if v == nil {
		return ""
	}
	s, err := jsonString(v)
	if err != nil {
		k.fail("vk.keyboard.payload.invalid", "vk: button payload: "+err.Error())
	}
	return s
}

// Text button sends its label as a message.
func (k *Keyboard) Text(label string, color Color, payload any) *Keyboard {
	return k.add(Button{
		Color: color,
		Action: ButtonAction{
			Type:    ActionText,
			Label:   label,
			Payload: k.payload(payload),
		},
	}, false)
}

// Callback button raises the message_event update.
func (k *Keyboard) Callback(label string, color Color, payload any) *Keyboard {
	return k.add(Button{
		Color: color,
		Action: ButtonAction{
			Type:    ActionCallback,
			Label:   label,
			Payload: k.payload(payload),
		},
	}, false)
}

// OpenLink button.
func (k *Keyboard) OpenLink(label, link string, payload any) *Keyboard {
	if k.err == nil && !util.IsURL(link) {
		return k.fail("vk.keyboard.link.invalid", "vk: open_link button: invalid link "+strconv.Quote(link))
	}
	return k.add(Button{
		Action: ButtonAction{
			Type:    ActionOpenLink,
			Label:   label,
			Link:    link,
			Payload: k.payload(payload),
		},
	}, false)
}

// Location button sends the user location. Takes up whole line.
func (k *Keyboard) Location(payload any) *Keyboard {
	return k.add(Button{
		Action: ButtonAction{
			Type:    ActionLocation,
			Payload: k.payload(payload),
		},
	}, true)
}

// VKPay button opens the payment window. Takes up whole line.
func (k *Keyboard) VKPay(hash string, payload any) *Keyboard {
	return k.add(Button{
		Action: ButtonAction{
			Type:    ActionVKPay,
			Hash:    hash,
			Payload: k.payload(payload),
		},
	}, true)
}

// OpenApp button opens the VK Mini App. Takes up whole line.
func (k *Keyboard) OpenApp(appID, ownerID int64, label, hash string, payload any) *Keyboard {
	return k.add(Button{
		Action: ButtonAction{
			Type:    ActionOpenApp,
			AppID:   appID,
			OwnerID: ownerID,
			Label:   label,
			Hash:    hash,
			Payload: k.payload(payload),
		},
	}, true)
}

// Err returns the first violation of the keyboard limits.
func (k *Keyboard) Err() error {
	return k.err
}

// JSON encodes the keyboard for the `keyboard` param.
func (k *Keyboard) JSON() (string, error) {
	if k.err != nil {
		return "", k.err
	}
	data, err := json.Marshal(k)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
