// Package http_request provides the `http_request` action, used by build
// files to call webhooks and release APIs.
package http_request
