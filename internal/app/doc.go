// Package app contains the core application logic. It wires the build file
// loader, target builder, resolver and execution engine together and owns
// the run lifecycle, decoupled from any specific entrypoint like a CLI.
package app
