package vk

import (
	"math/rand/v2"

	"github.com/SevereCloud/vksdk/v2/api"
)

// Hook observes every API request.
//
// BeforeRequest may add, remove or convert params;
// an error cancels the request.
// AfterRequest may observe or replace the response;
// its result becomes the request error.
type Hook interface {
	BeforeRequest(method string, params api.Params) error
	AfterRequest(method string, params api.Params, rsp *api.Response, err error) error
}

// AnyMethod matches every method in a Rule.
const AnyMethod = "*"

// Rule is a Hook bound to a method name.
type Rule struct {
	Method string
	Before func(params api.Params) error
	After  func(params api.Params, rsp *api.Response, err error) error
}

var _ Hook = Rule{}

func (r Rule) match(method string) bool {
	return r.Method == AnyMethod || r.Method == method
}

func (r Rule) BeforeRequest(method string, params api.Params) error {
	if r.Before == nil || !r.match(method) {
		return nil
	}
	return r.Before(params)
}

func (r Rule) AfterRequest(method string, params api.Params, rsp *api.Response, err error) error {
	if r.After == nil || !r.match(method) {
		return err
	}
	return r.After(params, rsp, err)
}

// DefaultHooks are installed in every Client:
// keyboard serialization and messages.send random_id.
func DefaultHooks() []Hook {
	return []Hook{
		Rule{Method: AnyMethod, Before: keyboardParam},
		Rule{Method: "messages.send", Before: randomID},
	}
}

func keyboardParam(params api.Params) error {
	kb, ok := params["keyboard"].(*Keyboard)
	if !ok {
		return nil
	}
	if kb == nil {
		delete(params, "keyboard")
		return nil
	}
	data, err := kb.JSON()
	if err != nil {
		return err
	}
	params["keyboard"] = data
	return nil
}

func randomID(params api.Params) error {
	if _, ok := params["random_id"]; !ok {
		params["random_id"] = rand.Int32()
	}
	return nil
}
