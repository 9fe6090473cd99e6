// Package cli defines the Cobra command tree for the zonetool CLI. Each file
// in this package registers one top-level command (extensions, resources,
// checkpoints, etc.) with the root command. Command implementations delegate
// to internal packages for business logic and only handle flag parsing, I/O
// formatting, and configuration lookup.
package cli
