// Package actions holds the handlers behind `action "type" {}` blocks.
//
// Modules contribute handlers by implementing Module and registering them at
// startup. The registry is read-only afterwards, so handlers can be looked up
// from any worker without locking.
package actions
