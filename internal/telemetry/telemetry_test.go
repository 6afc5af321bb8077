package telemetry

import (
	"runtime"
	"testing"

	"github.com/ianremillard/wrangler/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectAlwaysFillsOS(t *testing.T) {
	p := New("/")
	info := p.Collect()

	os, ok := info.OS.(OSInfo)
	require.True(t, ok)
	assert.Equal(t, runtime.GOOS, os.GOOS)
	assert.Equal(t, runtime.GOARCH, os.Arch)
}

type fakeProvider struct {
	info proto.SystemInfo
}

func (f fakeProvider) Collect() proto.SystemInfo { return f.info }

func TestFakeProviderSatisfiesInterface(t *testing.T) {
	var p Provider = fakeProvider{info: proto.SystemInfo{OS: OSInfo{GOOS: "plan9"}}}

	info := p.Collect()

	assert.Equal(t, OSInfo{GOOS: "plan9"}, info.OS)
}
