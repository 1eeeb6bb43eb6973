// Package docker provides the Docker Engine API access devserve needs to
// reclaim a port published by a container.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS)
//   - Listing running containers that publish a given host port
//   - Stopping those containers so the port is released cleanly
//
// When a container publishes the serving port, the process lsof reports is
// the Docker port proxy (or Docker Desktop's backend on macOS). Stopping the
// container is the only safe way to free the port.
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
