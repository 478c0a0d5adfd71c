// Package cmd provides the CLI commands for strdeploy.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// Version is the release version, set with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

// Logger defines the logging interface used by the command.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// Dependencies holds all injectable dependencies for the command.
// This enables testing by allowing mock implementations to be injected.
type Dependencies struct {
	// LoggerFactory creates a logger instance.
	LoggerFactory func() Logger

	// ConfigLoader loads process settings.
	ConfigLoader func() (*AppConfig, error)

	// DescriptorLoaderFactory creates the strdeploy.yml loader.
	DescriptorLoaderFactory func(log Logger) domain.DescriptorLoader

	// IdentityResolverFactory creates the tenant/registry resolver.
	IdentityResolverFactory func() domain.IdentityResolver

	// RepoProbeFactory creates a RepoStateProbe for the configured backend.
	RepoProbeFactory func(cfg *AppConfig, log Logger) (domain.RepoStateProbe, error)

	// ImageBuilderFactory creates an ImageBuilder for the configured engine.
	ImageBuilderFactory func(cfg *AppConfig, log Logger) (domain.ImageBuilder, error)

	// PipelineFactory creates a Pipeline with the given dependencies.
	PipelineFactory func(
		loader domain.DescriptorLoader,
		resolver domain.IdentityResolver,
		probe domain.RepoStateProbe,
		builder domain.ImageBuilder,
		log Logger,
	) domain.Pipeline

	// OutputWriterFactory creates an OutputWriter.
	OutputWriterFactory func() domain.OutputWriter

	// Getwd returns the directory used when --workdir is not given.
	Getwd func() (string, error)

	// Stderr is the writer for standard error (for warnings/errors).
	Stderr io.Writer
}

// AppConfig holds process settings loaded by ConfigLoader.
type AppConfig struct {
	// GitBackend selects the RepoStateProbe implementation.
	GitBackend string

	// GitBinary is the git executable for the cli backend.
	GitBinary string

	// BuildEngine selects the ImageBuilder implementation.
	BuildEngine string

	// DockerBinary is the docker executable for the cli engine.
	DockerBinary string

	// LogLevel is the log level setting.
	LogLevel string

	// LogAppName is the application name for logging.
	LogAppName string
}

// Command-line flags.
var (
	workdir string
	dryRun  bool
	verbose bool
)

// defaultDeps holds the production dependencies.
// This is set by the production wiring in main or via SetDefaultDependencies.
var defaultDeps *Dependencies

// SetDefaultDependencies sets the default dependencies for production use.
// This should be called from main() before Execute().
func SetDefaultDependencies(deps *Dependencies) {
	defaultDeps = deps
}

// NewRootCmd creates the root command for strdeploy.
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(defaultDeps)
}

// NewRootCmdWithDeps creates the root command with explicit dependencies.
// This is the primary constructor that enables testing via dependency injection.
func NewRootCmdWithDeps(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strdeploy",
		Short: "Build and push a branch-tagged container image for a project",
		Long: `strdeploy builds and pushes the container image of a project.

It reads strdeploy.yml from the working directory, resolves the tenant and
target registry, and tags the image with the current git branch and the
number of commits reachable from HEAD:

  <registry>/<image.namespace>/<image.name>:<branch>-<build number>

The image is built with the working directory as build context and pushed
only after the build succeeds. On success the tag is printed to stdout.

Example strdeploy.yml:
  tenant: internal
  namespace: internal
  mode: branch
  image:
    namespace: apps
    name: api

Examples:
  # Build and push from the current directory
  strdeploy

  # Show the tag that would be built without building or pushing
  strdeploy --dry-run

  # Deploy another project directory with debug logging
  strdeploy -d /path/to/project -v`,
		Version:      Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeploy(cmd, deps)
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&workdir, "workdir", "d", "",
		"Project directory containing strdeploy.yml (default: current directory)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Resolve and log everything but do not build or push")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose/debug logging")

	return rootCmd
}

// runDeploy executes the deployment pipeline with injected dependencies.
func runDeploy(cmd *cobra.Command, deps *Dependencies) error {
	if deps == nil {
		return errors.New("dependencies not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Get stderr for warnings
	stderr := deps.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	// Set log level based on verbose flag (best-effort)
	if verbose {
		if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
			// Best-effort warning: ignore fprintf error as this is non-critical
			writeWarningf(stderr, "warning: could not set log level: %v\n", err)
		}
	}

	// Initialize logger
	log := deps.LoggerFactory()

	// Determine working directory
	dir, err := resolveWorkdir(workdir, deps.Getwd)
	if err != nil {
		log.Error(ctx, "failed to determine working directory", err, nil)
		return fmt.Errorf("working directory error: %w", err)
	}

	log.Info(ctx, "starting strdeploy", map[string]interface{}{
		"version": Version,
		"workdir": dir,
		"dry_run": dryRun,
		"verbose": verbose,
	})

	// Load configuration
	cfg, err := deps.ConfigLoader()
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return fmt.Errorf("configuration error: %w", err)
	}

	// Initialize repository probe
	probe, err := deps.RepoProbeFactory(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialize repository probe", err, map[string]interface{}{
			"backend": cfg.GitBackend,
		})
		return fmt.Errorf("git backend error: %w", err)
	}

	// Initialize image builder
	builder, err := deps.ImageBuilderFactory(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to initialize image builder", err, map[string]interface{}{
			"engine": cfg.BuildEngine,
		})
		return fmt.Errorf("build engine error: %w", err)
	}
	defer func() {
		if closeErr := builder.Close(); closeErr != nil {
			log.Warn(ctx, "failed to close image builder", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	// Create pipeline and run it
	pipeline := deps.PipelineFactory(
		deps.DescriptorLoaderFactory(log),
		deps.IdentityResolverFactory(),
		probe,
		builder,
		log,
	)
	result, err := pipeline.Run(ctx, domain.RunOptions{
		Workdir: dir,
		DryRun:  dryRun,
	})
	if err != nil {
		return describeFailure(err, dir)
	}

	// Write image tag to stdout
	writer := deps.OutputWriterFactory()
	if err := writer.WriteImageTag(result.Tag); err != nil {
		log.Error(ctx, "failed to write output", err, nil)
		return fmt.Errorf("output error: %w", err)
	}

	return nil
}

// describeFailure turns a pipeline error into the message shown to the user.
func describeFailure(err error, dir string) error {
	switch {
	case errors.Is(err, domain.ErrConfigMissing):
		return fmt.Errorf("no %s found in %s: %w", domain.DescriptorFileName, dir, err)
	case errors.Is(err, domain.ErrConfigMalformed):
		return fmt.Errorf("invalid %s: %w", domain.DescriptorFileName, err)
	case errors.Is(err, domain.ErrUnknownTenant), errors.Is(err, domain.ErrUnknownNamespace):
		return fmt.Errorf("refusing to deploy: %w", err)
	case errors.Is(err, domain.ErrDetachedHead):
		return fmt.Errorf("cannot use 'HEAD' in branch mode: %w", err)
	default:
		return err
	}
}

// resolveWorkdir returns flagValue, or the current directory when it is empty,
// as an absolute path.
func resolveWorkdir(flagValue string, getwd func() (string, error)) (string, error) {
	dir := flagValue
	if dir == "" {
		if getwd == nil {
			getwd = os.Getwd
		}
		wd, err := getwd()
		if err != nil {
			return "", err
		}
		dir = wd
	}
	return filepath.Abs(dir)
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// writeWarningf writes a warning message to the given writer.
// This is a best-effort operation; errors are intentionally ignored
// because there is no recovery action if stderr writes fail.
func writeWarningf(w io.Writer, format string, args ...any) {
	_, err := fmt.Fprintf(w, format, args...)
	if err != nil {
		// Intentionally ignored: no recovery action for failed stderr writes
		return
	}
}
