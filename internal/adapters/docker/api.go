package docker

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// EngineClient is the subset of the Docker Engine API used by APIBuilder.
// *client.Client satisfies it.
type EngineClient interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options build.ImageBuildOptions) (build.ImageBuildResponse, error)
	ImagePush(ctx context.Context, image string, options image.PushOptions) (io.ReadCloser, error)
	Close() error
}

// APIBuilder implements domain.ImageBuilder against the Docker Engine API.
// The daemon's progress stream is rendered to Stdout as it arrives.
// Pushes are anonymous; credentials stored by the docker CLI are not consulted.
type APIBuilder struct {
	client  EngineClient
	streams Streams
	logger  Logger
}

// NewAPIBuilder connects to the daemon configured by DOCKER_HOST and friends.
func NewAPIBuilder(streams Streams, log Logger) (*APIBuilder, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return NewAPIBuilderWithClient(cli, streams, log), nil
}

// NewAPIBuilderWithClient creates an APIBuilder with an explicit engine client.
// This is useful for testing.
func NewAPIBuilderWithClient(cli EngineClient, streams Streams, log Logger) *APIBuilder {
	return &APIBuilder{
		client:  cli,
		streams: streams,
		logger:  log,
	}
}

// Build sends workdir as the build context and tags the result.
// Intermediate containers are always removed.
func (b *APIBuilder) Build(ctx context.Context, workdir string, tag domain.ImageTag) error {
	if _, err := os.Stat(workdir); err != nil {
		return fmt.Errorf("%w: build context: %w", domain.ErrBuildFailed, err)
	}

	buildContext, err := archive.TarWithOptions(workdir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("%w: failed to archive build context %s: %w", domain.ErrBuildFailed, workdir, err)
	}
	defer buildContext.Close()

	b.logger.Debug(ctx, "sending build context to docker daemon", map[string]interface{}{
		"dir": workdir,
		"tag": tag.String(),
	})

	resp, err := b.client.ImageBuild(ctx, buildContext, build.ImageBuildOptions{
		Tags:        []string{tag.String()},
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBuildFailed, err)
	}
	defer resp.Body.Close()

	if err := displayStream(resp.Body, b.streams.Stdout); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrBuildFailed, err)
	}
	return nil
}

// Push uploads tag to its registry.
func (b *APIBuilder) Push(ctx context.Context, _ string, tag domain.ImageTag) error {
	b.logger.Debug(ctx, "pushing image through docker daemon", map[string]interface{}{
		"tag": tag.String(),
	})

	body, err := b.client.ImagePush(ctx, tag.String(), image.PushOptions{})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPushFailed, err)
	}
	defer body.Close()

	if err := displayStream(body, b.streams.Stdout); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPushFailed, err)
	}
	return nil
}

// Close releases the engine client.
func (b *APIBuilder) Close() error {
	return b.client.Close()
}

// displayStream renders a daemon JSON message stream to out. A message carrying
// an error detail ends the stream with that error.
func displayStream(in io.Reader, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	return jsonmessage.DisplayJSONMessagesStream(in, out, 0, false, nil)
}
