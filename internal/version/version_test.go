package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	saved := [3]string{Version, GitSHA, BuildTime}
	t.Cleanup(func() { Version, GitSHA, BuildTime = saved[0], saved[1], saved[2] })

	Version, GitSHA, BuildTime = "v0.3.1", "abc123", "2026-01-02"
	assert.Equal(t, "v0.3.1 (abc123, built 2026-01-02)", String())
}
