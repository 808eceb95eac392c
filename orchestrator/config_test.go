package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamgarcia4/goLearning/ndnagg/bundle"
	"github.com/adamgarcia4/goLearning/ndnagg/topology"
	"github.com/adamgarcia4/goLearning/ndnagg/workspace"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, filepath.IsAbs(cfg.ProducerBinary))
	assert.True(t, filepath.IsAbs(cfg.AggregatorBinary))
	assert.True(t, filepath.IsAbs(cfg.ConsumerBinary))
	assert.True(t, strings.HasSuffix(cfg.ConsumerBinary, filepath.Join("exec", "catapps", "consumer")))
	assert.True(t, cfg.StopOnFailure)
	assert.Equal(t, 1, cfg.MaxParallel)
}

func TestValidateSentinels(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"binary", func(c *Config) { c.AggregatorBinary = "" }, ErrBinaryRequired},
		{"daemon", func(c *Config) { c.RoutingCommand = "" }, ErrCommandRequired},
		{"advertise", func(c *Config) { c.AdvertiseCommand = "" }, ErrCommandRequired},
		{"parallel", func(c *Config) { c.MaxParallel = 0 }, ErrInvalidParallelism},
		{"timeout", func(c *Config) { c.ReadinessTimeout = 0 }, ErrInvalidTimeout},
		{"probe", func(c *Config) { c.ProbeInterval = -time.Second }, ErrInvalidProbeInterval},
		{"settle", func(c *Config) { c.LaunchSettle = -time.Second }, ErrNegativeSettle},
		{"pattern", func(c *Config) { c.ReadyPattern = "(" }, ErrInvalidReadyPattern},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("NDNAGG_MAX_PARALLEL", "4")
	t.Setenv("NDNAGG_LAUNCH_SETTLE", "1500ms")
	t.Setenv("NDNAGG_TOOLS", "ip,nfd")
	t.Setenv("NDNAGG_STOP_ON_FAILURE", "false")
	t.Setenv("NDNAGG_EXEC_TEMPLATE", "sh -c {cmd}")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadEnv())

	assert.Equal(t, 4, cfg.MaxParallel)
	assert.Equal(t, 1500*time.Millisecond, cfg.LaunchSettle)
	assert.Equal(t, []string{"ip", "nfd"}, cfg.Tools)
	assert.False(t, cfg.StopOnFailure)
	assert.Equal(t, "sh -c {cmd}", cfg.ExecTemplate)
	// untouched fields keep their defaults
	assert.Equal(t, DefaultRoutingSettle, cfg.RoutingSettle)

	t.Setenv("NDNAGG_MAX_PARALLEL", "many")
	assert.Error(t, DefaultConfig().LoadEnv())
}

func TestEngineFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpCommand = "minindn {topology}"
	e := cfg.Engine("/tmp/logs/exp")
	assert.Equal(t, "minindn {topology}", e.UpCommand)
	assert.Equal(t, cfg.ExecTemplate, e.ExecTemplate)
	assert.Equal(t, "/tmp/logs/exp/emu.log", e.LogPath)
	assert.Empty(t, cfg.Engine("").LogPath)
}

func TestBuildManifest(t *testing.T) {
	m := testManifest(t, treeTable)

	assert.Equal(t, "exp", m.Label)
	assert.Equal(t, bundle.VariantAIMD, m.Variant)
	assert.True(t, filepath.IsAbs(m.TopologyPath))
	assert.Equal(t, []string{"pro0", "pro1", "pro2"}, m.Hosts(topology.RoleProducer))
	assert.Equal(t, []string{"agg0", "agg1"}, m.Hosts(topology.RoleAggregator))
	assert.Equal(t, topology.RoleRelay, m.Roles["r0"])

	assert.Equal(t, filepath.Join(m.LogDir, "agg0.log"), m.LogPath("agg0"))
	assert.Equal(t, filepath.Join(m.LogDir, ConsumerLog), m.LogPath("con0"))
	assert.Equal(t, filepath.Join(m.LogDir, "r0.routing.log"), m.DaemonLogPath("r0", "routing"))

	assert.True(t, strings.HasSuffix(m.Configs[topology.RoleAggregator], filepath.Join("algorithm", "aimd", bundle.AggregatorPutFile)))
	for _, path := range m.Configs {
		assert.FileExists(t, path)
	}
}

func TestBuildManifestRejects(t *testing.T) {
	m := testManifest(t, treeTable)
	root := filepath.Dir(filepath.Dir(m.TopologyPath))
	ws, err := workspace.New(root).Open("exp")
	require.NoError(t, err)

	_, err = BuildManifest(ws, bundle.Variant("cubic"), t.TempDir())
	assert.ErrorIs(t, err, bundle.ErrUnknownVariant)

	require.NoError(t, os.Remove(m.Configs[topology.RoleProducer]))
	_, err = BuildManifest(ws, bundle.VariantAIMD, t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRecorderWritesRunFile(t *testing.T) {
	m := testManifest(t, treeTable)
	rec := NewRecorder(m)

	o, err := New(testConfig(), &fakeEngine{}, WithObserver(rec))
	require.NoError(t, err)
	_, err = o.Run(context.Background(), m)
	require.NoError(t, err)
	defer o.Shutdown(context.Background())

	got, err := ReadRecord(filepath.Join(m.LogDir, RunFile))
	require.NoError(t, err)
	assert.Equal(t, "exp", got.Label)
	assert.Equal(t, "aimd", got.Variant)
	assert.Equal(t, "aggregator", got.Roles["agg1"])
	require.Len(t, got.Stages, 15)
	assert.Equal(t, StageRecord{Stage: "network-up", Status: StatusRunning, At: got.Stages[0].At}, got.Stages[0])
	assert.Equal(t, StatusDone, got.Stages[14].Status)
	assert.Equal(t, StageInteractiveHandoff.String(), got.Stages[14].Stage)

	entries, err := os.ReadDir(m.LogDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".run-")
	}
}

func TestStageNames(t *testing.T) {
	var got []string
	for _, s := range Stages() {
		got = append(got, s.String())
	}
	assert.Equal(t, []string{
		"network-up", "forwarding-up", "routing-up", "producers-up",
		"aggregators-up", "route-advertise", "consumer-up", "interactive-handoff",
	}, got)
	assert.Equal(t, "stage(42)", Stage(42).String())
}
