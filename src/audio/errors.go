package audio

import "errors"

// ErrNotInitialized is returned when an operation requires a fully
// constructed engine (use NewEngine, not a zero value).
var ErrNotInitialized = errors.New("audio: engine not initialized")

// ErrDisposed is returned when an operation is invoked after Dispose.
var ErrDisposed = errors.New("audio: engine disposed")
