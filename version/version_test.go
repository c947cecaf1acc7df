package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.String(), "Commit:")
}

func TestUserAgent(t *testing.T) {
	info := Info{Version: "v1.2.3", Platform: "linux/amd64"}
	assert.Equal(t, "elementipelago/1.2.3 (linux/amd64)", info.UserAgent())
}
