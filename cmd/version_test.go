package cmd

import "testing"

func TestVersion(t *testing.T) {
	defer func(tag, date, commit string) {
		GitTag, BuildDate, GitCommit = tag, date, commit
	}(GitTag, BuildDate, GitCommit)

	tests := []struct {
		tag, date, commit string
		want              string
	}{
		{"", "", "", "0.0.0"},
		{"v1.2.0", "", "", "0.0.0@v1.2.0"},
		{"v1.2.0", "20261017", "abc123", "0.0.0@v1.2.0-20261017-abc123"},
		{"", "", "abc123", "0.0.0-abc123"},
	}
	for _, tt := range tests {
		GitTag, BuildDate, GitCommit = tt.tag, tt.date, tt.commit
		if got := Version(); got != tt.want {
			t.Errorf("Version() = %s; want %s", got, tt.want)
		}
	}
}
