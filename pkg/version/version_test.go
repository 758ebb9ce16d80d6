package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.BuildDate)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
}

func TestGetBuildInfoParsesValidDate(t *testing.T) {
	originalBuildDate := BuildDate
	defer func() { BuildDate = originalBuildDate }()

	BuildDate = "2026-01-13T20:00:00Z"
	info := GetBuildInfo()

	expected, err := time.Parse(time.RFC3339, BuildDate)
	require.NoError(t, err)
	assert.True(t, info.BuildTime.Equal(expected))
}

func TestString(t *testing.T) {
	info := BuildInfo{
		Version:   "1.2.3",
		GitCommit: "abc1234",
		BuildDate: "2026-01-13T20:00:00Z",
		GoVersion: "go1.25.0",
		Platform:  "linux/amd64",
	}
	s := info.String()
	assert.Contains(t, s, "qsctl 1.2.3")
	assert.Contains(t, s, "abc1234")
	assert.Contains(t, s, "linux/amd64")
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "qsctl/"+Version, UserAgent())
}
