package meshsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testConfig = `
name: spring-melt
sources:
  - name: forcing
    provides: [air_temp, precip]
modules:
  - name: snowpack
    provides: [swe]
    requires: [air_temp, precip]
  - name: runoff
    requires: [swe]
provider_overrides:
  air_temp: forcing
outputs:
  - name: swe_map
    variables: [swe]
    frequency: 24
  - name: final_state
    variables: [swe]
    only_last_n: 1
  - name: morning
    variables: [swe]
    specific_time: "06:00"
  - name: peak
    variables: [swe]
    specific_datetime: "2024-04-01T12:00:00Z"
checkpoint:
  enabled: true
  on_last_timestep: true
  frequency: 168
  on_out_of_time: true
  abort_margin: 90s
`

func TestLoadConfigString(t *testing.T) {
	cfg, err := LoadConfigString(testConfig)
	require.NoError(t, err)
	require.Equal(t, "spring-melt", cfg.Name)
	require.Len(t, cfg.Sources, 1)
	require.Len(t, cfg.Modules, 2)
	require.Equal(t, map[string]string{"air_temp": "forcing"}, cfg.ProviderOverrides)
}

func TestConfigRegistryAndSchedule(t *testing.T) {
	cfg, err := LoadConfigString(testConfig)
	require.NoError(t, err)

	graph, err := Build(cfg.Registry(), cfg.ProviderOverrides)
	require.NoError(t, err)

	chunks, err := Schedule(graph)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"snowpack"}, {"runoff"}}, chunkNames(graph, chunks))
}

func TestConfigOutputDescriptors(t *testing.T) {
	cfg, err := LoadConfigString(testConfig)
	require.NoError(t, err)

	outputs, err := cfg.OutputDescriptors()
	require.NoError(t, err)
	require.Len(t, outputs, 4)

	require.Equal(t, 24, *outputs[0].Frequency)
	require.Equal(t, 1, *outputs[1].OnlyLastN)

	require.Equal(t, 6, outputs[2].SpecificTimeOfDay.Hour())
	require.Equal(t, 0, outputs[2].SpecificTimeOfDay.Minute())

	want := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, outputs[3].SpecificDatetime.Equal(want))
}

func TestConfigCheckpointPolicy(t *testing.T) {
	cfg, err := LoadConfigString(testConfig)
	require.NoError(t, err)

	policy, err := cfg.CheckpointPolicy()
	require.NoError(t, err)
	require.True(t, policy.Enabled)
	require.True(t, *policy.OnLastTimestep)
	require.Equal(t, 168, *policy.Frequency)
	require.True(t, *policy.OnOutOfTime)
	require.Equal(t, 90*time.Second, policy.AbortMargin)
}

func TestConfigErrors(t *testing.T) {
	t.Run("not yaml", func(t *testing.T) {
		_, err := LoadConfigString("{not yaml")
		require.Error(t, err)
	})

	t.Run("no modules", func(t *testing.T) {
		_, err := LoadConfigString("name: empty")
		require.ErrorContains(t, err, "at least one module")
	})

	t.Run("bad output times reported together", func(t *testing.T) {
		cfg, err := LoadConfigString(`
name: bad
modules:
  - name: m
outputs:
  - name: a
    specific_time: "25:99"
  - name: b
    specific_datetime: "yesterday"
`)
		require.NoError(t, err)
		_, err = cfg.OutputDescriptors()
		require.Error(t, err)
		require.ErrorContains(t, err, `output "a": invalid specific_time`)
		require.ErrorContains(t, err, `output "b": invalid specific_datetime`)
	})

	t.Run("bad abort margin", func(t *testing.T) {
		cfg, err := LoadConfigString(`
name: bad
modules:
  - name: m
checkpoint:
  enabled: true
  abort_margin: soonish
`)
		require.NoError(t, err)
		_, err = cfg.CheckpointPolicy()
		require.ErrorContains(t, err, "invalid abort_margin")
	})
}
