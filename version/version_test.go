package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	defer func(c, b, d, v string) {
		GitCommit, GitBranch, BuildDate, Version = c, b, d, v
	}(GitCommit, GitBranch, BuildDate, Version)

	GitCommit, GitBranch, BuildDate, Version = "abc123", "", "2024-05-01", "1.2.0"
	assert.Equal(t, "git commit: abc123\nbuild date: 2024-05-01\nversion: 1.2.0", String())
	assert.Equal(t, []interface{}{"GitCommit", "abc123", "GitBranch", "", "BuildDate", "2024-05-01", "Version", "1.2.0"}, LogFields())
}
