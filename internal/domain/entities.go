// Package domain defines the core business entities and interfaces for strdeploy.
package domain

import "fmt"

// DescriptorFileName is the name of the deployment descriptor expected at the
// root of the working directory.
const DescriptorFileName = "strdeploy.yml"

// Mode is the deployment strategy declared in the descriptor.
type Mode string

// ModeBranch embeds the current branch name and build number in the image tag.
// It is the only supported mode.
const ModeBranch Mode = "branch"

// ParseMode converts the raw descriptor value into a Mode.
// Unknown values are rejected with ErrConfigMalformed.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeBranch:
		return ModeBranch, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrConfigMalformed, raw)
	}
}

// ImageSpec identifies the image's logical path within the target registry.
type ImageSpec struct {
	Namespace string
	Name      string
}

// DeploymentConfig is the typed representation of strdeploy.yml.
// It is loaded once per run and never modified afterwards.
type DeploymentConfig struct {
	Tenant    string
	Namespace string
	Mode      Mode
	Image     ImageSpec
}

// ResolvedIdentity is the canonical tenant and the registry host that is allowed
// to receive the image.
type ResolvedIdentity struct {
	Tenant       string
	RegistryHost string
}

// RepoState is the version-control state the image tag is derived from.
type RepoState struct {
	// Branch is the short name of the checked out branch. Never "HEAD".
	Branch string

	// BuildNumber is the count of commits reachable from HEAD, in decimal.
	BuildNumber string
}

// ImageTag is a fully qualified image reference,
// registryHost/imageNamespace/imageName:branch-buildNumber.
type ImageTag string

// String returns the tag as a plain string.
func (t ImageTag) String() string {
	return string(t)
}

// RunOptions are supplied by the CLI layer and read-only for the pipeline.
type RunOptions struct {
	// Workdir is the project directory holding strdeploy.yml and the build context.
	Workdir string

	// DryRun suppresses the build and push invocations.
	DryRun bool
}

// Stage is a step of the deployment pipeline state machine.
type Stage string

// Pipeline stages in execution order, plus the terminal failure state.
const (
	StageInit             Stage = "init"
	StageConfigLoaded     Stage = "config_loaded"
	StageIdentityResolved Stage = "identity_resolved"
	StageRepoProbed       Stage = "repo_probed"
	StageTagBuilt         Stage = "tag_built"
	StageBuilt            Stage = "built"
	StagePushed           Stage = "pushed"
	StageDone             Stage = "done"
	StageFailed           Stage = "failed"
)

// RunResult records everything a pipeline run observed.
// On failure it holds whatever was resolved before the failing step.
type RunResult struct {
	Stage     Stage
	Config    *DeploymentConfig
	Identity  *ResolvedIdentity
	RepoState *RepoState
	Tag       ImageTag
	Built     bool
	Pushed    bool
	DryRun    bool
}
