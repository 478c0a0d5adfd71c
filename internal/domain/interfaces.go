// Package domain defines the core business entities and interfaces for strdeploy.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors. Every one of them is terminal for a pipeline run.
var (
	// ErrConfigMissing indicates strdeploy.yml is absent or unreadable.
	ErrConfigMissing = errors.New("deployment descriptor not found")

	// ErrConfigMalformed indicates strdeploy.yml does not match the expected schema.
	ErrConfigMalformed = errors.New("deployment descriptor is malformed")

	// ErrUnknownTenant indicates the tenant is not in the identity table.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrUnknownNamespace indicates the namespace has no registry mapping.
	ErrUnknownNamespace = errors.New("unknown namespace")

	// ErrDetachedHead indicates HEAD does not point at a named branch.
	ErrDetachedHead = errors.New("repository is in detached HEAD state; checkout a branch to use branch mode")

	// ErrQueryFailed indicates a version-control query could not be run or parsed.
	ErrQueryFailed = errors.New("version control query failed")

	// ErrInvalidImageTag indicates the composed tag is not a valid image reference.
	ErrInvalidImageTag = errors.New("invalid image tag")

	// ErrBuildFailed indicates the image build did not complete successfully.
	ErrBuildFailed = errors.New("image build failed")

	// ErrPushFailed indicates the image push did not complete successfully.
	ErrPushFailed = errors.New("image push failed")
)

// PipelineError records the stage that was being attempted when a run failed.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// DescriptorLoader reads the deployment descriptor from a project directory.
type DescriptorLoader interface {
	// Load returns ErrConfigMissing or ErrConfigMalformed on failure.
	Load(ctx context.Context, workdir string) (*DeploymentConfig, error)
}

// IdentityResolver maps declared tenant/namespace values to a registry target.
type IdentityResolver interface {
	// Resolve returns ErrUnknownTenant or ErrUnknownNamespace for values outside
	// the allow-list.
	Resolve(tenant, namespace string) (*ResolvedIdentity, error)
}

// RepoStateProbe queries version control for the branch and build number.
type RepoStateProbe interface {
	// Probe returns ErrDetachedHead when HEAD is not on a branch and
	// ErrQueryFailed when the backend cannot answer.
	Probe(ctx context.Context, workdir string) (*RepoState, error)
}

// ImageBuilder builds and pushes container images.
type ImageBuilder interface {
	// Build builds workdir as the build context and tags the result.
	Build(ctx context.Context, workdir string, tag ImageTag) error

	// Push uploads a locally built tag to its registry.
	Push(ctx context.Context, workdir string, tag ImageTag) error

	// Close releases any resources held by the builder.
	Close() error
}

// OutputWriter writes the pipeline result for consumption by scripts.
type OutputWriter interface {
	// WriteImageTag writes the computed image tag.
	WriteImageTag(tag ImageTag) error
}

// Pipeline runs one deployment.
type Pipeline interface {
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
}
