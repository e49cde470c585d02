// Package main hosts the Darkroom CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon's dashboard API, queue maintenance operations,
// journal inspection, and configuration scaffolding. It centralizes
// configuration resolution and dashboard discovery so subcommands can focus
// on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
