// Package utils holds the ambient helpers shared by the CLI commands: layered
// configuration loading, zap logger construction, context metadata, and a writer that
// serializes terminal output from concurrent tasks.
package utils
