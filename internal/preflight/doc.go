// Package preflight provides the pre-run checklist for evaluation hosts.
//
// Each check probes one prerequisite: a tool on PATH, an environment
// variable, the pinned Python runtime, Docker daemon and image inventory,
// agent build artifacts, or directory permissions. Checks are independent
// and run concurrently; RunAll reports them in a stable order.
//
// The CLI "benchenv check" command exits with the number of failed
// required checks, so automation can gate runs on a zero exit status.
// Optional checks surface useful state without affecting the exit code.
package preflight
