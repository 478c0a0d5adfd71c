// Package main is the entry point for the strdeploy CLI application.
// strdeploy builds a project's container image, tags it with the current
// branch and build number, and pushes it to the tenant's registry.
package main

import (
	"fmt"
	"os"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/logger"

	"github.com/MyCarrier-DevOps/strdeploy/cmd"
	"github.com/MyCarrier-DevOps/strdeploy/internal/adapters/descriptor"
	"github.com/MyCarrier-DevOps/strdeploy/internal/adapters/docker"
	"github.com/MyCarrier-DevOps/strdeploy/internal/adapters/git"
	logadapter "github.com/MyCarrier-DevOps/strdeploy/internal/adapters/logger"
	"github.com/MyCarrier-DevOps/strdeploy/internal/adapters/output"
	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
	"github.com/MyCarrier-DevOps/strdeploy/internal/infrastructure/config"
	"github.com/MyCarrier-DevOps/strdeploy/internal/usecases"
)

func main() {
	// Wire up production dependencies
	deps := &cmd.Dependencies{
		// The zap logger reads LOG_LEVEL when it is built, so it is created
		// after the command has applied --verbose.
		LoggerFactory: func() cmd.Logger {
			return logadapter.NewZapAdapter(logger.NewZapLoggerFromConfig()).With(map[string]any{
				"version": cmd.Version,
			})
		},

		ConfigLoader: loadAppConfig,

		DescriptorLoaderFactory: func(_ cmd.Logger) domain.DescriptorLoader {
			return descriptor.NewYAMLLoader()
		},

		IdentityResolverFactory: func() domain.IdentityResolver {
			return usecases.DefaultIdentityTable()
		},

		RepoProbeFactory: newRepoProbe,

		ImageBuilderFactory: func(cfg *cmd.AppConfig, log cmd.Logger) (domain.ImageBuilder, error) {
			return newImageBuilder(cfg, docker.ProcessStreams(), log)
		},

		PipelineFactory: func(
			loader domain.DescriptorLoader,
			resolver domain.IdentityResolver,
			probe domain.RepoStateProbe,
			builder domain.ImageBuilder,
			log cmd.Logger,
		) domain.Pipeline {
			return usecases.NewDeploymentPipeline(loader, resolver, probe, builder, log)
		},

		OutputWriterFactory: func() domain.OutputWriter {
			return output.NewWriter()
		},

		Getwd:  os.Getwd,
		Stderr: os.Stderr,
	}

	cmd.SetDefaultDependencies(deps)
	cmd.Execute()
}

// loadAppConfig reads process settings and copies them into the command's view.
func loadAppConfig() (*cmd.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &cmd.AppConfig{
		GitBackend:   cfg.GitBackend,
		GitBinary:    cfg.GitBinary,
		BuildEngine:  cfg.BuildEngine,
		DockerBinary: cfg.DockerBinary,
		LogLevel:     cfg.LogLevel,
		LogAppName:   cfg.LogAppName,
	}, nil
}

// newRepoProbe selects the repository probe named by cfg.GitBackend.
func newRepoProbe(cfg *cmd.AppConfig, log cmd.Logger) (domain.RepoStateProbe, error) {
	switch cfg.GitBackend {
	case config.GitBackendCLI:
		return git.NewCLIProbe(cfg.GitBinary, log), nil
	case config.GitBackendGoGit:
		return git.NewGoGitProbe(log), nil
	default:
		return nil, newUnsupportedError("git backend", cfg.GitBackend)
	}
}

// newImageBuilder selects the image builder named by cfg.BuildEngine.
func newImageBuilder(cfg *cmd.AppConfig, streams docker.Streams, log cmd.Logger) (domain.ImageBuilder, error) {
	switch cfg.BuildEngine {
	case config.BuildEngineCLI:
		return docker.NewCLIBuilder(cfg.DockerBinary, streams, log), nil
	case config.BuildEngineAPI:
		builder, err := docker.NewAPIBuilder(streams, log)
		if err != nil {
			return nil, err
		}
		return builder, nil
	default:
		return nil, newUnsupportedError("build engine", cfg.BuildEngine)
	}
}

func newUnsupportedError(kind, name string) error {
	return &unsupportedError{kind: kind, name: name}
}

// unsupportedError is returned when a backend or engine name has no implementation.
type unsupportedError struct {
	kind string
	name string
}

func (e *unsupportedError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.kind, e.name)
}
