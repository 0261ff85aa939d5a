// Package docker provides Docker Engine API wrappers and container
// lifecycle management for the asgiboot CLI.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Container label management for persisting service metadata
//     (Docker labels are the sole state storage mechanism)
//   - Container lifecycle operations: create+start, list, stop, remove
//   - Runtime state inspection for the readiness loop
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
