package debug

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogFile(t *testing.T) {
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	file := filepath.Join(t.TempDir(), "logs", "stepvm.log")
	ctx := newContext(t, "--log.file", file, "--log.format", "json", "--verbosity", "4")
	require.NoError(t, Setup(ctx))
	log.Debug("Setup done", "answer", 42)
	Exit()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Setup done"`)
	assert.Contains(t, string(data), `"answer":42`)
}

func TestSetupRotation(t *testing.T) {
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	file := filepath.Join(t.TempDir(), "stepvm.log")
	ctx := newContext(t, "--log.file", file, "--log.rotate", "--log.format", "logfmt")
	require.NoError(t, Setup(ctx))
	log.Info("Rotating")
	Exit()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=Rotating")
}

func TestSetupInvalid(t *testing.T) {
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	assert.Error(t, Setup(newContext(t, "--log.format", "xml")))
	assert.Error(t, Setup(newContext(t, "--log.vmodule", "vm=x")))
}

func TestSetupLogFileNotDir(t *testing.T) {
	defer log.SetDefault(log.NewLogger(log.DiscardHandler()))

	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0644))
	err := Setup(newContext(t, "--log.file", filepath.Join(parent, "sub", "stepvm.log")))
	assert.ErrorContains(t, err, "failed to initialize file logger")
	var pathErr *os.PathError
	assert.True(t, errors.As(err, &pathErr))
}

func TestGoTrace(t *testing.T) {
	file := filepath.Join(t.TempDir(), "trace.out")
	h := new(HandlerT)

	assert.Error(t, h.StopGoTrace())
	h.StartRegion("idle")()

	require.NoError(t, h.StartGoTrace(file))
	assert.True(t, h.Tracing())
	assert.Error(t, h.StartGoTrace(file))
	h.StartRegion("work")()
	require.NoError(t, h.StopGoTrace())
	assert.False(t, h.Tracing())

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
