// Command benchenv prepares and verifies hosts that run coding-agent
// evaluations: it provisions the pinned Python runtime, materializes
// per-instance Docker workspaces, and runs the pre-run checklist whose
// exit code equals the number of failed required checks.
package main
