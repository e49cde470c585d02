// Package daemon coordinates the long-running Darkroom process and system
// integration points.
//
// It wires configuration, the queue engine, the Telegram poller, the web
// dashboard, and the nightly reset scheduler into a single lifecycle with
// flock-based locking to prevent multiple instances.
//
// Keep orchestration logic here: request handling should live in the surface
// packages while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
