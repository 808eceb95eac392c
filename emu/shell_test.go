package emu

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webConf = `[nodes]
pro0:_
con0:_
agg0:_

[links]
con0:agg0 bw=100 loss=0 delay=10 max_queue_number=10000
agg0:pro0 bw=100 loss=0 delay=10 max_queue_number=10000
`

func writeConf(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "web.conf")
	require.NoError(t, os.WriteFile(path, []byte(webConf), 0o644))
	return path
}

func localEngine(t *testing.T) *ShellEngine {
	t.Helper()
	return &ShellEngine{
		UpCommand:    "sleep 30",
		ExecTemplate: "sh -c {cmd}",
		LogPath:      filepath.Join(t.TempDir(), "emu.log"),
	}
}

func TestReadHosts(t *testing.T) {
	hosts, err := ReadHosts(writeConf(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"agg0", "con0", "pro0"}, hosts)

	empty := filepath.Join(t.TempDir(), "web.conf")
	require.NoError(t, os.WriteFile(empty, []byte("[links]\n"), 0o644))
	_, err = ReadHosts(empty)
	assert.ErrorIs(t, err, ErrNoHosts)
}

func TestNetworkLifecycle(t *testing.T) {
	ctx := context.Background()
	marker := filepath.Join(t.TempDir(), "down")
	e := localEngine(t)
	e.DownCommand = "touch " + Quote(marker)

	n, err := e.Start(ctx, writeConf(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"agg0", "con0", "pro0"}, n.Hosts())

	_, ok := n.Host("r9")
	assert.False(t, ok)

	h, ok := n.Host("con0")
	require.True(t, ok)
	assert.Equal(t, "con0", h.Name())

	out, err := h.Run(ctx, "echo it's up")
	require.NoError(t, err)
	assert.Equal(t, "it's up\n", out)

	_, err = h.Run(ctx, "exit 2")
	assert.Error(t, err)

	require.NoError(t, n.Stop(ctx))
	assert.FileExists(t, marker)
}

func TestNetworkEmulator(t *testing.T) {
	ctx := context.Background()
	n, err := localEngine(t).Start(ctx, writeConf(t))
	require.NoError(t, err)

	emulated, ok := n.(Emulated)
	require.True(t, ok)
	up := emulated.Emulator()
	require.NotNil(t, up)
	assert.True(t, up.Alive())

	require.NoError(t, n.Stop(ctx))
	assert.False(t, up.Alive())

	e := localEngine(t)
	e.UpCommand = ""
	n, err = e.Start(ctx, writeConf(t))
	require.NoError(t, err)
	assert.Nil(t, n.(Emulated).Emulator())
}

func TestProcessLogsAndStop(t *testing.T) {
	ctx := context.Background()
	n, err := localEngine(t).Start(ctx, writeConf(t))
	require.NoError(t, err)
	defer n.Stop(ctx)

	h, _ := n.Host("pro0")
	logPath := filepath.Join(t.TempDir(), "logs", "pro0.log")
	p, err := h.Start(ctx, "echo serving; sleep 30", logPath)
	require.NoError(t, err)
	assert.Equal(t, "pro0", p.Host())
	assert.Positive(t, p.Pid())

	assert.Eventually(t, func() bool {
		data, _ := os.ReadFile(logPath)
		return strings.Contains(string(data), "serving")
	}, 5*time.Second, 10*time.Millisecond)
	assert.True(t, p.Alive())

	require.NoError(t, p.Stop())
	assert.False(t, p.Alive())
	assert.NoError(t, p.Err())
	assert.NoError(t, p.Stop())
}

func TestProcessExitsOnItsOwn(t *testing.T) {
	p, err := StartProcess(context.Background(), "agg0", "exit 3", []string{"sh", "-c", "exit 3"}, "")
	require.NoError(t, err)

	select {
	case <-p.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	assert.Error(t, p.Err())
	assert.NoError(t, p.Stop())
}

func TestStartProcessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StartProcess(ctx, "agg0", "true", []string{"true"}, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	e := &ShellEngine{Tools: []string{"sh"}}
	assert.NoError(t, e.Verify(context.Background()))

	e.Tools = append(e.Tools, "ndnagg-no-such-tool")
	assert.ErrorIs(t, e.Verify(context.Background()), ErrMissingTool)
}

func TestWrap(t *testing.T) {
	h := &shellHost{name: "agg1"}
	assert.Equal(t, `ip netns exec agg1 sh -c 'nlsrc advertise /agg1'`, h.wrap("nlsrc advertise /agg1"))
	assert.Equal(t, `'a'\''b'`, Quote("a'b"))
}
