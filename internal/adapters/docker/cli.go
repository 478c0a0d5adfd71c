// Package docker provides adapters that build and push container images.
// Both adapters implement the domain.ImageBuilder interface.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// Logger defines the logging interface for the docker adapters.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
}

// Streams are the stdio handles a child process inherits.
type Streams struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ProcessStreams returns the current process's stdio.
func ProcessStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLIBuilder implements domain.ImageBuilder by running the docker binary.
// Output is streamed straight to the terminal, not captured.
type CLIBuilder struct {
	binary  string
	streams Streams
	logger  Logger
}

// NewCLIBuilder creates a CLIBuilder that runs binary with the given streams.
func NewCLIBuilder(binary string, streams Streams, log Logger) *CLIBuilder {
	return &CLIBuilder{
		binary:  binary,
		streams: streams,
		logger:  log,
	}
}

// Build runs `docker build --force-rm -t <tag> .` in workdir.
func (b *CLIBuilder) Build(ctx context.Context, workdir string, tag domain.ImageTag) error {
	if err := b.run(ctx, workdir, "build", "--force-rm", "-t", tag.String(), "."); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBuildFailed, err)
	}
	return nil
}

// Push runs `docker push <tag>` in workdir.
func (b *CLIBuilder) Push(ctx context.Context, workdir string, tag domain.ImageTag) error {
	if err := b.run(ctx, workdir, "push", tag.String()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPushFailed, err)
	}
	return nil
}

// Close is a no-op; the CLI builder holds no resources.
func (b *CLIBuilder) Close() error {
	return nil
}

// run starts the command, waits for it, and reports launch failures and
// non-zero exits as errors.
func (b *CLIBuilder) run(ctx context.Context, dir string, args ...string) error {
	b.logger.Debug(ctx, "running docker", map[string]interface{}{
		"binary": b.binary,
		"args":   strings.Join(args, " "),
		"dir":    dir,
	})

	cmd := exec.CommandContext(ctx, b.binary, args...)
	cmd.Dir = dir
	cmd.Stdin = b.streams.Stdin
	cmd.Stdout = b.streams.Stdout
	cmd.Stderr = b.streams.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", b.binary, args[0], err)
	}
	return nil
}
