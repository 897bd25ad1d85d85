// Package s3 provides the `s3` action, which moves build artifacts to and
// from object storage through pre-signed URLs.
package s3
