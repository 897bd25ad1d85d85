package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/cli"
	"github.com/vk/buildgrid/internal/report"
)

func writeBuild(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to set up test file")
	return path
}

func TestRun_Success(t *testing.T) {
	t.Parallel()

	path := writeBuild(t, `
target "Hello" {
  action "print" {
    message = "hello from ${target.name}"
  }
}
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-f", path, "Hello"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "[Hello] hello from Hello")
	assert.Contains(t, out.String(), "Build succeeded")
}

func TestRun_SyntaxError(t *testing.T) {
	t.Parallel()

	path := writeBuild(t, `
target "A" {
  action "print" {
	// Missing closing brace here
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-f", path, "A"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, report.ExitConfigError, exitErr.Code)
	assert.Contains(t, exitErr.Message, "failed to load build file")
}

func TestRun_TargetFailure(t *testing.T) {
	t.Parallel()

	path := writeBuild(t, `
target "Broken" {
  requires = [false]
}
`)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-f", path, "Broken"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, report.ExitFailed, exitErr.Code)
	assert.Contains(t, out.String(), "Build failed")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
