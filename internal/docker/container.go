package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	// types.Container is the struct returned by ContainerList.
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/shinji-kodama/devserve/internal/model"
)

// ListPublishing returns the running containers that publish port on the
// host. The Docker daemon applies the "publish" filter server-side; the
// result is re-checked locally because the filter also matches container
// ports that are exposed but mapped to a different host port on some
// daemon versions.
func ListPublishing(ctx context.Context, cli *Client, port int) ([]model.ContainerInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("publish", strconv.Itoa(port)+"/tcp"),
	)

	containers, err := cli.inner.ContainerList(ctx, container.ListOptions{
		Filters: filterArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("list containers publishing port %d: %w", port, err)
	}

	result := make([]model.ContainerInfo, 0, len(containers))
	for _, c := range containers {
		if !publishes(c, port) {
			continue
		}
		result = append(result, containerToInfo(c))
	}
	return result, nil
}

// publishes reports whether c maps host port on TCP.
func publishes(c types.Container, port int) bool {
	for _, p := range c.Ports {
		if int(p.PublicPort) == port && (p.Type == "" || p.Type == "tcp") {
			return true
		}
	}
	return false
}

// containerToInfo converts a Docker API Container struct to our domain
// model ContainerInfo. Docker returns names with a leading "/" which is
// stripped for display.
func containerToInfo(c types.Container) model.ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ContainerInfo{
		ContainerID:   c.ID,
		ContainerName: name,
		Image:         c.Image,
		ServiceName:   c.Labels["com.docker.compose.service"],
		Status:        c.State,
	}
}

// StopContainer stops a running container by its ID. Docker sends SIGTERM
// and falls back to SIGKILL after its default timeout.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	if err := cli.inner.ContainerStop(ctx, containerID, container.StopOptions{}); err != nil {
		return fmt.Errorf("stop container %q: %w", containerID, err)
	}
	return nil
}

// Stopper implements model.ContainerStopper against the local Docker daemon.
// It connects on each call, so a daemon started after devserve is still
// found and an absent one costs a single socket stat.
type Stopper struct{}

// NewStopper creates a Stopper.
func NewStopper() *Stopper {
	return &Stopper{}
}

// StopPublishing stops every running container publishing port and
// returns their names. An unreachable daemon yields an error wrapping
// ErrUnavailable.
func (s *Stopper) StopPublishing(ctx context.Context, port int) ([]string, error) {
	cli, err := NewClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}

	containers, err := ListPublishing(ctx, cli, port)
	if err != nil {
		return nil, err
	}

	var stopped []string
	for _, c := range containers {
		if err := StopContainer(ctx, cli, c.ContainerID); err != nil {
			return stopped, err
		}
		stopped = append(stopped, c.ContainerName)
	}
	return stopped, nil
}

// Inspect lists containers publishing port without stopping them. It is
// used by the read-only status report.
func Inspect(ctx context.Context, port int) ([]model.ContainerInfo, error) {
	cli, err := NewClient()
	if err != nil {
		return nil, err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return nil, err
	}
	return ListPublishing(ctx, cli, port)
}
