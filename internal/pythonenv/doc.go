// Package pythonenv provisions the pinned Python runtime the harness needs.
//
// Discovery walks the configured conda roots, then PATH, then falls back to
// a versioned python binary for stdlib venv creation. Provisioning is
// serialized across processes with a file lock so two invocations cannot
// race on the same env.
package pythonenv
