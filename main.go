package main

import (
	"github.com/webitel/vk_longpoll/cmd"

	// load packages so they can register commands
	_ "github.com/webitel/vk_longpoll/cmd/poll"
)

func main() {
	cmd.Run()
}
