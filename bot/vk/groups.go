package vk

import (
	"context"

	"github.com/SevereCloud/vksdk/v2/api"
	"github.com/pkg/errors"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

// Groups method group.
type Groups struct {
	c *Client
}

var _ longpoll.Negotiator = (*Groups)(nil)

// vksdk decodes ts as a string only
type longPollServer struct {
	Key    string      `json:"key"`
	Server string      `json:"server"`
	Ts     longpoll.Ts `json:"ts"`
}

// GetLongPollServer requests a Bots Long Poll session for the group.
//
// https://dev.vk.com/method/groups.getLongPollServer
func (g *Groups) GetLongPollServer(ctx context.Context, groupID int64) (longpoll.Session, error) {
	var res longPollServer
	err := g.c.API.RequestUnmarshal("groups.getLongPollServer", &res,
		api.Params{"group_id": groupID}.WithContext(ctx),
	)
	if err != nil {
		return longpoll.Session{}, &longpoll.NegotiationError{
			GroupID: groupID,
			Err:     errors.Wrap(err, "groups.getLongPollServer"),
		}
	}
	return longpoll.Session{
		Server: res.Server,
		Key:    res.Key,
		Ts:     res.Ts,
	}, nil
}

// Negotiate implements longpoll.Negotiator.
func (g *Groups) Negotiate(ctx context.Context, groupID int64) (longpoll.Session, error) {
	return g.GetLongPollServer(ctx, groupID)
}
