package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// detachedRef is what `git rev-parse --abbrev-ref HEAD` prints when HEAD is detached.
const detachedRef = "HEAD"

// CLIProbe implements domain.RepoStateProbe by running the git binary.
// Git's stderr is forwarded so the user sees its diagnostics.
type CLIProbe struct {
	binary string
	stderr io.Writer
	logger Logger
}

// NewCLIProbe creates a CLIProbe that runs binary and forwards its stderr to os.Stderr.
func NewCLIProbe(binary string, log Logger) *CLIProbe {
	return NewCLIProbeWithStderr(binary, os.Stderr, log)
}

// NewCLIProbeWithStderr creates a CLIProbe with a custom stderr destination.
// This is useful for testing.
func NewCLIProbeWithStderr(binary string, stderr io.Writer, log Logger) *CLIProbe {
	return &CLIProbe{
		binary: binary,
		stderr: stderr,
		logger: log,
	}
}

// Probe implements domain.RepoStateProbe.
func (p *CLIProbe) Probe(ctx context.Context, workdir string) (*domain.RepoState, error) {
	branch, err := p.query(ctx, workdir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil, err
	}
	if branch == detachedRef {
		p.logger.Warn(ctx, "HEAD is detached", map[string]interface{}{
			"path": workdir,
		})
		return nil, domain.ErrDetachedHead
	}

	raw, err := p.query(ctx, workdir, "rev-list", "--count", "HEAD")
	if err != nil {
		return nil, err
	}
	count, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: commit count %q is not a number", domain.ErrQueryFailed, raw)
	}

	state := &domain.RepoState{
		Branch:      branch,
		BuildNumber: strconv.FormatUint(count, 10),
	}

	p.logger.Debug(ctx, "read repository state", map[string]interface{}{
		"branch":       state.Branch,
		"build_number": state.BuildNumber,
	})

	return state, nil
}

// query runs one read-only git command in dir and returns trimmed stdout.
// Invalid UTF-8 is replaced rather than rejected.
func (p *CLIProbe) query(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binary, args...)
	cmd.Dir = dir
	cmd.Stderr = p.stderr

	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %w", domain.ErrQueryFailed, p.binary, strings.Join(args, " "), err)
	}

	value := strings.TrimSpace(strings.ToValidUTF8(string(out), "�"))
	if value == "" {
		return "", fmt.Errorf("%w: %s %s returned no output", domain.ErrQueryFailed, p.binary, strings.Join(args, " "))
	}

	return value, nil
}
