// Package source produces log lines for the CLI, either from a stream such as
// stdin or by following a file as it grows.
package source
