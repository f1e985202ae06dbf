package poll

import (
	"os"
	"testing"
	"time"

	"github.com/micro/micro/v3/service/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/webitel/vk_longpoll/bot/vk/longpoll"
)

func parse(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		config *Config
		err    error
	)
	app := &cli.App{
		Name:  "test",
		Flags: Flags(),
		Action: func(c *cli.Context) error {
			config, err = configure(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return config, err
}

// unsetenv clears the variables for the test; restored on cleanup.
func unsetenv(t *testing.T, keys ...string) {
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

var envVars = []string{"VK_TOKEN", "VK_GROUP_ID", "VK_API_VERSION", "AMQP_URL", "AMQP_EXCHANGE"}

func TestConfigure(t *testing.T) {
	unsetenv(t, envVars...)

	config, err := parse(t,
		"--token", "secret",
		"--group", "1", "--group", "2",
		"--wait", "10s",
		"--failure-policy", "1=resync,2=renegotiate",
		"--queue", "16",
		"--ignore", "typing_state",
		"--dedup-ttl", "5m",
	)
	require.NoError(t, err)

	assert.Equal(t, "secret", config.Token)
	assert.Equal(t, []int64{1, 2}, config.Groups)
	assert.Equal(t, 10*time.Second, config.Wait)
	assert.Equal(t, longpoll.Policy{1: longpoll.RuleResync, 2: longpoll.RuleRenegotiate}, config.Policy)
	assert.Equal(t, 16, config.Queue)
	assert.Equal(t, []string{"typing_state"}, config.Ignore)
	assert.Equal(t, 5*time.Minute, config.DedupTTL)
	assert.Equal(t, longpoll.DefaultMaxRetries, config.MaxRetries)
	assert.Equal(t, "vk.events", config.AMQP.Exchange)
	assert.Empty(t, config.AMQP.URL)
}

func TestConfigure_Env(t *testing.T) {
	unsetenv(t, envVars...)
	t.Setenv("VK_TOKEN", "from-env")
	t.Setenv("VK_GROUP_ID", "7,8")

	config, err := parse(t)
	require.NoError(t, err)
	assert.Equal(t, "from-env", config.Token)
	assert.Equal(t, []int64{7, 8}, config.Groups)
	assert.Equal(t, longpoll.DefaultPolicy(), config.Policy)
}

func TestConfigure_Invalid(t *testing.T) {
	unsetenv(t, envVars...)

	tests := []struct {
		name string
		args []string
		id   string
	}{
		{"no token", []string{"--group", "1"}, "poll.config.token.required"},
		{"no group", []string{"--token", "t"}, "poll.config.group.required"},
		{"negative group", []string{"--token", "t", "--group", "-1"}, "poll.config.group.invalid"},
		{"duplicate group", []string{"--token", "t", "--group", "1", "--group", "1"}, "poll.config.group.duplicate"},
		{"wait too long", []string{"--token", "t", "--group", "1", "--wait", "2m"}, "poll.config.wait.invalid"},
		{"negative queue", []string{"--token", "t", "--group", "1", "--queue", "-1"}, "poll.config.negative"},
		{"bad policy", []string{"--token", "t", "--group", "1", "--failure-policy", "1=retry"}, "poll.config.failure_policy.invalid"},
		{"negative group again", []string{"--token", "t", "--group", "-1"}, "poll.config.group.invalid"},
		{"no group after negative", []string{"--token", "t"}, "poll.config.group.required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.id, errors.FromError(err).Id)
		})
	}
}

func TestConfigure_Repeated(t *testing.T) {
	unsetenv(t, envVars...)

	_, err := parse(t, "--token", "t", "--group", "-1", "--ignore", "typing_state")
	require.Error(t, err)

	config, err := parse(t, "--token", "t", "--group", "3")
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, config.Groups)
	assert.Empty(t, config.Ignore)
}

func TestConfigure_DetailVerbatim(t *testing.T) {
	unsetenv(t, envVars...)

	_, err := parse(t, "--token", "t", "--group", "5", "--failure-policy", "1=50%off")
	require.Error(t, err)
	e := errors.FromError(err)
	assert.Equal(t, "poll.config.failure_policy.invalid", e.Id)
	assert.Contains(t, e.Detail, "50%off")
	assert.NotContains(t, e.Detail, "MISSING")

	_, err = parse(t, "--token", "t", "--group", "-7")
	require.Error(t, err)
	assert.Equal(t, "poll: invalid group id -7", errors.FromError(err).Detail)
}
