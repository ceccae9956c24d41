package telemetry

import (
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfilerDisabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	// Stop is idempotent
	assert.NoError(t, p.Stop())
}

func TestNewProfilerValidation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{
		Enabled:         true,
		ApplicationName: "numbering",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server address")

	_, err = NewProfiler(ProfilerConfig{
		Enabled:       true,
		ServerAddress: "http://pyroscope:4040",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application name")
}

func TestProfilerConfigProfileTypes(t *testing.T) {
	cfg := ProfilerConfig{ProfileCPU: true, ProfileAllocSpace: true}
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileAllocSpace}, cfg.profileTypes())

	cfg = ProfilerConfig{ProfileInuseSpace: true, ProfileGoroutines: true}
	assert.Equal(t, []pyroscope.ProfileType{pyroscope.ProfileInuseSpace, pyroscope.ProfileGoroutines}, cfg.profileTypes())

	assert.Empty(t, ProfilerConfig{}.profileTypes())
}
