package cmd

import "fmt"

var (
	GitTag    string // semver(branch)
	GitBranch string // branch
	GitCommit string // patch
	BuildDate string // time

	name        = "vk_longpoll"
	version     = "0.0.0"
	description = "VK group Bots Long Poll consumer"
)

// Name of the service.
func Name() string {
	return name
}

func Version() string {

	fullVersion := version

	if GitTag != "" {
		fullVersion += "@" + GitTag
	}

	if BuildDate != "" {
		fullVersion += fmt.Sprintf("-%s", BuildDate)
	}

	if GitCommit != "" {
		fullVersion += fmt.Sprintf("-%s", GitCommit)
	}

	return fullVersion
}
