// Package exec provides the `exec` action, which runs an external command
// once per invocation or once per partition item.
package exec
