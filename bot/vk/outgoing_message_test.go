package vk

import (
	"testing"

	"github.com/micro/micro/v3/service/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboard_Limits(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Keyboard
		valid bool
	}{
		{
			name: "five buttons",
			build: func() *Keyboard {
				k := NewKeyboard(false, false)
				for i := 0; i < MaxButtons; i++ {
					k.Text("b", Secondary, nil)
				}
				return k
			},
			valid: true,
		},
		{
			name: "six buttons",
			build: func() *Keyboard {
				k := NewKeyboard(false, false)
				for i := 0; i <= MaxButtons; i++ {
					k.Text("b", Secondary, nil)
				}
				return k
			},
		},
		{
			name: "ten lines",
			build: func() *Keyboard {
				k := NewKeyboard(false, false)
				for i := 1; i < MaxLines; i++ {
					k.Text("b", Secondary, nil).NewLine()
				}
				return k
			},
			valid: true,
		},
		{
			name: "eleven lines",
			build: func() *Keyboard {
				k := NewKeyboard(false, false)
				for i := 0; i < MaxLines; i++ {
					k.Text("b", Secondary, nil).NewLine()
				}
				return k
			},
		},
		{
			name: "seven inline lines",
			build: func() *Keyboard {
				k := NewKeyboard(false, true)
				for i := 0; i < MaxLinesInline; i++ {
					k.Callback("b", Primary, nil).NewLine()
				}
				return k
			},
		},
		{
			name: "location on a new line",
			build: func() *Keyboard {
				return NewKeyboard(true, false).Text("a", Secondary, nil).NewLine().Location(nil)
			},
			valid: true,
		},
		{
			name: "location after a button",
			build: func() *Keyboard {
				return NewKeyboard(true, false).Text("a", Secondary, nil).Location(nil)
			},
		},
		{
			name: "open link",
			build: func() *Keyboard {
				return NewKeyboard(false, true).OpenLink("l", "https://vk.com", nil).OpenLink("m", "http://vk.me", nil)
			},
			valid: true,
		},
		{
			name: "open link without scheme",
			build: func() *Keyboard {
				return NewKeyboard(false, true).OpenLink("l", "vk.com", nil)
			},
		},
		{
			name: "button after open app",
			build: func() *Keyboard {
				return NewKeyboard(false, true).OpenApp(1, -1, "app", "", nil).OpenLink("l", "https://vk.com", nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := tt.build()
			_, err := k.JSON()
			if tt.valid {
				assert.NoError(t, err)
				assert.NoError(t, k.Err())
			} else {
				assert.Error(t, err)
				assert.Error(t, k.Err())
			}
		})
	}
}

func TestKeyboard_ErrorDetail(t *testing.T) {
	k := NewKeyboard(false, true).OpenLink("l", "50%off", nil)
	require.Error(t, k.Err())
	e := errors.FromError(k.Err())
	assert.Equal(t, "vk.keyboard.link.invalid", e.Id)
	assert.Equal(t, `vk: open_link button: invalid link "50%off"`, e.Detail)
}

func TestKeyboard_FirstErrorKept(t *testing.T) {
	k := NewKeyboard(false, false).Text("a", Secondary, nil).Location(nil)
	first := k.Err()
	require.Error(t, first)

	for i := 0; i < MaxLines+1; i++ {
		k.NewLine()
	}
	assert.Equal(t, first, k.Err())
	assert.Len(t, k.Buttons, 1)
}

func TestKeyboard_Empty(t *testing.T) {
	k := NewKeyboard(true, false).Text("a", Secondary, nil).Location(nil).Empty()
	data, err := k.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"one_time":true,"inline":false,"buttons":[]}`, data)

	// usable again
	data, err = k.Callback("c", Negative, `{"x":1}`).JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"one_time":true,"inline":false,"buttons":[[{"color":"negative","action":{"type":"callback","label":"c","payload":"{\"x\":1}"}}]]}`, data)
}

func TestOutgoingMessage_Params(t *testing.T) {
	_, err := (&OutgoingMessage{PeerID: 1}).Params()
	assert.Error(t, err, "no payload")

	_, err = (&OutgoingMessage{Text: "x"}).Params()
	assert.Error(t, err, "no receiver")

	kb := NewKeyboard(false, false)
	params, err := (&OutgoingMessage{
		PeerID:      10,
		Text:        "hello",
		Attachments: []string{"photo1_2", "doc3_4"},
		ReplyTo:     5,
		Payload:     map[string]int{"n": 1},
		Keyboard:    kb,
	}).Params()
	require.NoError(t, err)
	assert.Equal(t, int64(10), params["peer_id"])
	assert.Equal(t, "hello", params["message"])
	assert.Equal(t, "photo1_2,doc3_4", params["attachment"])
	assert.Equal(t, int64(5), params["reply_to"])
	assert.Equal(t, `{"n":1}`, params["payload"])
	assert.Same(t, kb, params["keyboard"])
}
