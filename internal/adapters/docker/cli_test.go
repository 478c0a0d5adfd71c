package docker

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// mockLogger implements Logger for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}

// fakeDocker writes a shell script standing in for docker. Every invocation
// appends "<pwd>|<args>" to the returned log file and prints a line to stdout.
// The script exits with failCode when its first argument equals failOn.
func fakeDocker(t *testing.T, failOn string, failCode int) (bin, log string) {
	t.Helper()
	dir := t.TempDir()
	log = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"echo \"$(pwd)|$*\" >> '" + log + "'\n" +
		"echo \"fake docker $1\"\n" +
		"if [ \"$1\" = '" + failOn + "' ]; then echo 'failure' >&2; exit " + strconv.Itoa(failCode) + "; fi\n"
	bin = filepath.Join(dir, "docker")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, log
}

func readCalls(t *testing.T, log string) []string {
	t.Helper()
	data, err := os.ReadFile(log)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestCLIBuilder_BuildAndPush(t *testing.T) {
	bin, log := fakeDocker(t, "none", 0)
	workdir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer

	builder := NewCLIBuilder(bin, Streams{Stdout: &stdout, Stderr: &stderr}, &mockLogger{})
	tag := domain.ImageTag("cr.ilharper.com/apps/api:feature-x-7")

	require.NoError(t, builder.Build(context.Background(), workdir, tag))
	require.NoError(t, builder.Push(context.Background(), workdir, tag))

	assert.Equal(t, []string{
		workdir + "|build --force-rm -t cr.ilharper.com/apps/api:feature-x-7 .",
		workdir + "|push cr.ilharper.com/apps/api:feature-x-7",
	}, readCalls(t, log))

	// Child output goes to the configured streams unmodified
	assert.Equal(t, "fake docker build\nfake docker push\n", stdout.String())
	assert.Empty(t, stderr.String())
	assert.NoError(t, builder.Close())
}

func TestCLIBuilder_Build_NonZeroExit(t *testing.T) {
	bin, _ := fakeDocker(t, "build", 1)
	var stderr bytes.Buffer
	builder := NewCLIBuilder(bin, Streams{Stdout: &bytes.Buffer{}, Stderr: &stderr}, &mockLogger{})

	err := builder.Build(context.Background(), t.TempDir(), "cr.ilharper.com/apps/api:main-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBuildFailed)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Equal(t, "failure\n", stderr.String())
}

func TestCLIBuilder_Push_NonZeroExit(t *testing.T) {
	bin, _ := fakeDocker(t, "push", 3)
	builder := NewCLIBuilder(bin, Streams{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}, &mockLogger{})

	err := builder.Push(context.Background(), t.TempDir(), "cr.ilharper.com/apps/api:main-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPushFailed)
	assert.NotErrorIs(t, err, domain.ErrBuildFailed)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestCLIBuilder_BinaryNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-docker")
	builder := NewCLIBuilder(missing, Streams{}, &mockLogger{})

	err := builder.Build(context.Background(), t.TempDir(), "cr.ilharper.com/apps/api:main-1")
	assert.ErrorIs(t, err, domain.ErrBuildFailed)

	err = builder.Push(context.Background(), t.TempDir(), "cr.ilharper.com/apps/api:main-1")
	assert.ErrorIs(t, err, domain.ErrPushFailed)
}

func TestProcessStreams(t *testing.T) {
	s := ProcessStreams()
	assert.Equal(t, os.Stdin, s.Stdin)
	assert.Equal(t, os.Stdout, s.Stdout)
	assert.Equal(t, os.Stderr, s.Stderr)
}
