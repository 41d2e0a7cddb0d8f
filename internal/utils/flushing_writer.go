package utils

import (
	"io"
	"sync"
)

type flusher interface {
	Flush() error
}

// FlushingWriter serializes writes from concurrent producers onto one destination and
// flushes the destination after every write when it buffers.
type FlushingWriter struct {
	destination io.Writer
	mutex       sync.Mutex
}

// NewFlushingWriter wraps the destination. A nil destination discards writes and an
// existing FlushingWriter is returned unchanged so producers keep sharing one lock.
func NewFlushingWriter(destination io.Writer) *FlushingWriter {
	if existing, alreadyWrapped := destination.(*FlushingWriter); alreadyWrapped && existing != nil {
		return existing
	}
	if destination == nil {
		destination = io.Discard
	}
	return &FlushingWriter{destination: destination}
}

// Write forwards data to the destination while holding the writer lock.
func (writer *FlushingWriter) Write(data []byte) (int, error) {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	bytesWritten, writeError := writer.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	return bytesWritten, writer.flushLocked()
}

// Flush flushes a buffering destination. It is a no-op for unbuffered destinations.
func (writer *FlushingWriter) Flush() error {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()
	return writer.flushLocked()
}

func (writer *FlushingWriter) flushLocked() error {
	if bufferedDestination, buffered := writer.destination.(flusher); buffered {
		return bufferedDestination.Flush()
	}
	return nil
}
