// Package docker wraps the Docker CLI for the handful of operations the
// harness needs: image inventory checks, workspace materialization via
// create/cp, and bound evaluation containers.
//
// The daemon API is deliberately not used; evaluation hosts only guarantee
// a working `docker` binary, and the CLI surface here is small enough that
// shelling out keeps the dependency footprint flat.
package docker
