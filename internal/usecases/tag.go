package usecases

import (
	"fmt"

	"github.com/distribution/reference"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// BuildImageTag composes registryHost/namespace/name:branch-buildNumber.
// It performs no validation; see ValidateImageTag.
func BuildImageTag(registryHost string, image domain.ImageSpec, state domain.RepoState) domain.ImageTag {
	return domain.ImageTag(fmt.Sprintf(
		"%s/%s/%s:%s-%s",
		registryHost,
		image.Namespace,
		image.Name,
		state.Branch,
		state.BuildNumber,
	))
}

// ValidateImageTag checks that tag is a canonical, tagged image reference.
// Branch names such as "feature/x" or upper-case image paths produce references
// the container tooling rejects; they fail here before anything is built.
func ValidateImageTag(tag domain.ImageTag) error {
	named, err := reference.ParseNamed(tag.String())
	if err != nil {
		return fmt.Errorf("%w: %q: %w", domain.ErrInvalidImageTag, tag, err)
	}

	if _, ok := named.(reference.Tagged); !ok {
		return fmt.Errorf("%w: %q has no tag component", domain.ErrInvalidImageTag, tag)
	}

	return nil
}
