// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// Logger defines the logging interface required by the pipeline.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// DeploymentPipeline loads the descriptor, resolves identity and repository
// state, composes the image tag, then builds and pushes the image.
// Every step runs exactly once and the first failure ends the run.
type DeploymentPipeline struct {
	loader   domain.DescriptorLoader
	resolver domain.IdentityResolver
	probe    domain.RepoStateProbe
	builder  domain.ImageBuilder
	logger   Logger
}

// NewDeploymentPipeline creates a new DeploymentPipeline with the given dependencies.
func NewDeploymentPipeline(
	loader domain.DescriptorLoader,
	resolver domain.IdentityResolver,
	probe domain.RepoStateProbe,
	builder domain.ImageBuilder,
	log Logger,
) *DeploymentPipeline {
	return &DeploymentPipeline{
		loader:   loader,
		resolver: resolver,
		probe:    probe,
		builder:  builder,
		logger:   log,
	}
}

// Run executes one deployment for opts.Workdir.
//
// The returned RunResult is never nil. On failure its Stage is StageFailed and the
// error is a *domain.PipelineError naming the stage that was being attempted.
// A failed push leaves the built image in place.
func (p *DeploymentPipeline) Run(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error) {
	result := &domain.RunResult{
		Stage:  domain.StageInit,
		DryRun: opts.DryRun,
	}

	p.logger.Info(ctx, "starting deployment pipeline", map[string]interface{}{
		"workdir": opts.Workdir,
		"dry_run": opts.DryRun,
	})

	// Load descriptor
	cfg, err := p.loader.Load(ctx, opts.Workdir)
	if err != nil {
		return p.fail(ctx, result, domain.StageConfigLoaded, err)
	}
	result.Config = cfg
	result.Stage = domain.StageConfigLoaded

	p.logger.Debug(ctx, "loaded deployment descriptor", map[string]interface{}{
		"tenant":          cfg.Tenant,
		"namespace":       cfg.Namespace,
		"mode":            string(cfg.Mode),
		"image_namespace": cfg.Image.Namespace,
		"image_name":      cfg.Image.Name,
	})

	// Resolve tenant and target registry
	identity, err := p.resolver.Resolve(cfg.Tenant, cfg.Namespace)
	if err != nil {
		return p.fail(ctx, result, domain.StageIdentityResolved, err)
	}
	result.Identity = identity
	result.Stage = domain.StageIdentityResolved

	p.logger.Info(ctx, "resolved identity", map[string]interface{}{
		"tenant":   identity.Tenant,
		"registry": identity.RegistryHost,
	})

	// Probe branch and build number
	state, err := p.probe.Probe(ctx, opts.Workdir)
	if err != nil {
		return p.fail(ctx, result, domain.StageRepoProbed, err)
	}
	result.RepoState = state
	result.Stage = domain.StageRepoProbed

	p.logger.Info(ctx, "probed repository state", map[string]interface{}{
		"branch":       state.Branch,
		"build_number": state.BuildNumber,
	})

	// Compose image tag
	tag := BuildImageTag(identity.RegistryHost, cfg.Image, *state)
	if err := ValidateImageTag(tag); err != nil {
		return p.fail(ctx, result, domain.StageTagBuilt, err)
	}
	result.Tag = tag
	result.Stage = domain.StageTagBuilt

	p.logger.Info(ctx, "computed image tag", map[string]interface{}{
		"tag": tag.String(),
	})

	// Build
	p.logger.Warn(ctx, "start building image", map[string]interface{}{
		"tag": tag.String(),
	})
	if opts.DryRun {
		p.logger.Warn(ctx, "skipping build in dry-run", nil)
	} else {
		if err := p.builder.Build(ctx, opts.Workdir, tag); err != nil {
			return p.fail(ctx, result, domain.StageBuilt, err)
		}
		result.Built = true
	}
	result.Stage = domain.StageBuilt

	// Push
	p.logger.Warn(ctx, "start pushing image", map[string]interface{}{
		"tag": tag.String(),
	})
	if opts.DryRun {
		p.logger.Warn(ctx, "skipping push in dry-run", nil)
	} else {
		if err := p.builder.Push(ctx, opts.Workdir, tag); err != nil {
			return p.fail(ctx, result, domain.StagePushed, err)
		}
		result.Pushed = true
	}
	result.Stage = domain.StageDone
	p.logger.Info(ctx, "deployment pipeline complete", map[string]interface{}{
		"tag":     tag.String(),
		"built":   result.Built,
		"pushed":  result.Pushed,
		"dry_run": result.DryRun,
	})

	return result, nil
}

// fail marks the run failed while attempting stage.
func (p *DeploymentPipeline) fail(
	ctx context.Context,
	result *domain.RunResult,
	stage domain.Stage,
	err error,
) (*domain.RunResult, error) {
	result.Stage = domain.StageFailed
	p.logger.Error(ctx, "deployment pipeline failed", err, map[string]interface{}{
		"stage": string(stage),
	})
	return result, &domain.PipelineError{Stage: stage, Err: err}
}
