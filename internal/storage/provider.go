// Package storage defines whole-file access to the decision log.
package storage

// Provider is the interface for decision-log file operations.
type Provider interface {
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of the file at path.
	Write(path string, content []byte) error
	// Create writes content to a new file, failing if path already exists.
	Create(path string, content []byte) error
}
