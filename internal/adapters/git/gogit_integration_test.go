// Package git provides adapters for reading branch and build number from local Git repositories.
package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

// setupTestRepo creates a temporary git repository with the given number of
// commits checked out on branch.
func setupTestRepo(t *testing.T, branch string, commits int) string {
	t.Helper()

	tmpDir := t.TempDir()

	// Initialize git repo
	runGit(t, tmpDir, "init")
	runGit(t, tmpDir, "config", "user.email", "test@example.com")
	runGit(t, tmpDir, "config", "user.name", "Test User")
	runGit(t, tmpDir, "config", "commit.gpgsign", "false")

	for i := 1; i <= commits; i++ {
		testFile := filepath.Join(tmpDir, "test.txt")
		require.NoError(t, os.WriteFile(testFile, []byte(fmt.Sprintf("content %d", i)), 0o644))
		runGit(t, tmpDir, "add", ".")
		runGit(t, tmpDir, "commit", "-m", fmt.Sprintf("Commit %d", i))
		if i == 1 {
			runGit(t, tmpDir, "checkout", "-B", branch)
		}
	}

	return tmpDir
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
}

// probeContext returns a context that bounds test runtime.
func probeContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestGoGitProbe_Probe_Success(t *testing.T) {
	repoPath := setupTestRepo(t, "feature-x", 7)

	state, err := NewGoGitProbe(&testLogger{}).Probe(probeContext(t), repoPath)

	require.NoError(t, err)
	assert.Equal(t, &domain.RepoState{Branch: "feature-x", BuildNumber: "7"}, state)
}

func TestGoGitProbe_Probe_Subdirectory(t *testing.T) {
	repoPath := setupTestRepo(t, "main", 2)
	subDir := filepath.Join(repoPath, "services", "api")
	require.NoError(t, os.MkdirAll(subDir, 0o755))

	state, err := NewGoGitProbe(&testLogger{}).Probe(probeContext(t), subDir)

	require.NoError(t, err)
	assert.Equal(t, "main", state.Branch)
	assert.Equal(t, "2", state.BuildNumber)
}

func TestGoGitProbe_Probe_CountsMergedHistory(t *testing.T) {
	repoPath := setupTestRepo(t, "main", 2)

	// Two commits on a side branch, one on main, then a merge commit
	runGit(t, repoPath, "checkout", "-b", "side")
	for i := 0; i < 2; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(repoPath, fmt.Sprintf("side%d.txt", i)), []byte("side"), 0o644))
		runGit(t, repoPath, "add", ".")
		runGit(t, repoPath, "commit", "-m", fmt.Sprintf("Side %d", i))
	}
	runGit(t, repoPath, "checkout", "main")
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "main.txt"), []byte("main"), 0o644))
	runGit(t, repoPath, "add", ".")
	runGit(t, repoPath, "commit", "-m", "Main change")
	runGit(t, repoPath, "merge", "--no-ff", "-m", "Merge side", "side")

	gogitState, err := NewGoGitProbe(&testLogger{}).Probe(probeContext(t), repoPath)
	require.NoError(t, err)

	cliState, err := NewCLIProbeWithStderr("git", io.Discard, &testLogger{}).Probe(probeContext(t), repoPath)
	require.NoError(t, err)

	// 2 initial + 2 side + 1 main + 1 merge
	assert.Equal(t, "6", gogitState.BuildNumber)
	assert.Equal(t, cliState, gogitState)
}

func TestGoGitProbe_Probe_DetachedHead(t *testing.T) {
	repoPath := setupTestRepo(t, "main", 3)
	runGit(t, repoPath, "checkout", "--detach")

	state, err := NewGoGitProbe(&testLogger{}).Probe(probeContext(t), repoPath)

	require.Error(t, err)
	assert.Nil(t, state)
	assert.ErrorIs(t, err, domain.ErrDetachedHead)
}

func TestGoGitProbe_Probe_NotARepository(t *testing.T) {
	state, err := NewGoGitProbe(&testLogger{}).Probe(probeContext(t), t.TempDir())

	require.Error(t, err)
	assert.Nil(t, state)
	assert.ErrorIs(t, err, domain.ErrQueryFailed)
}

func TestGoGitProbe_Probe_NoCommits(t *testing.T) {
	repoPath := t.TempDir()
	runGit(t, repoPath, "init")

	_, err := NewGoGitProbe(&testLogger{}).Probe(probeContext(t), repoPath)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQueryFailed)
}

func TestGoGitProbe_Probe_ContextCancelled(t *testing.T) {
	repoPath := setupTestRepo(t, "main", 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoGitProbe(&testLogger{}).Probe(ctx, repoPath)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
