// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Original source: github.com/micro/micro/v3/service/logger/default.go

package log

import (
	"log/slog"
	"os"
	"strings"
)

var (
	// $VK_LOG_LEVEL
	verbose slog.LevelVar
)

// Verbose returns the log.Level
func Verbose() slog.Level {
	return verbose.Level()
}

func init() {

	// default:
	verbose.Set(
		// -"debug" ; [ +"info" ] ; +"warn" ; +"error"
		slog.LevelInfo,
	)

	setLevel := ""
	for _, envar := range []string{
		"VK_LOG_LEVEL",
		"LOG_LEVEL", // alias
	} {
		setLevel = strings.TrimSpace(
			os.Getenv(envar),
		)
		if setLevel != "" {
			break // found
		}
	}

	// CUSTOM
	logLevel, err := parseLevel(setLevel)
	if err == nil {
		verbose.Set(logLevel)
	}

	slog.SetDefault(
		slog.New(console(
			os.Stdout, &verbose,
		)),
	)
}

// Setup replaces the default logger according to the command line.
// Empty arguments keep the current setting.
func Setup(format, level string) error {
	if level = strings.TrimSpace(level); level != "" {
		v, err := parseLevel(level)
		if err != nil {
			return err
		}
		verbose.Set(v)
	}
	handler, err := NewHandler(
		format, os.Stdout, &verbose,
	)
	if err != nil {
		return err
	}
	slog.SetDefault(
		slog.New(handler),
	)
	return nil
}
