package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const showSRT = `1
00:00:00,000 --> 00:00:02,000
a

2
00:00:02,000 --> 00:00:04,000
b

3
00:00:04,000 --> 00:00:06,000
c
`

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// testEnv is a throwaway library, config, database and output directory.
type testEnv struct {
	library string
	config  string
	db      string
	out     string
}

func newTestEnv(t *testing.T, extraConfig string) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{
		library: filepath.Join(root, "library"),
		config:  filepath.Join(root, "config.yaml"),
		db:      filepath.Join(root, "state", "subtitles.db"),
		out:     filepath.Join(root, "out"),
	}

	require.NoError(t, os.MkdirAll(env.library, 0755))
	env.writeLibraryFile(t, "show.mp4", "")
	env.writeLibraryFile(t, "show.srt", showSRT)

	cfg := fmt.Sprintf("storage:\n  path: %q\noutput:\n  dir: %q\nlogging:\n  level: error\n%s",
		filepath.Dir(env.db), env.out, extraConfig)
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))
	return env
}

func (e *testEnv) writeLibraryFile(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.library, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// run executes the CLI with --config pointing at the test config.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs(context.Background(), "test", append([]string{"--config", e.config}, args...))
	})
	return output, err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	output, err := e.run(t, args...)
	require.NoError(t, err)
	return output
}

func (e *testEnv) readOutput(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.out, name))
	require.NoError(t, err)
	return string(data)
}
