// Package print provides the `print` action, which writes a message and an
// optional sorted key/value map.
package print
