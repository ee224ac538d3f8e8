package controller

import "errors"

var (
	// ErrUnknownObject marks references to identifiers that are not
	// registered. Operations treat it as a no-op and never return it.
	ErrUnknownObject = errors.New("unknown object")
	// ErrEmptySubtree is returned by IsolateSubtree when the node has no
	// objects below it. The controller has already fallen back to ResetAll.
	ErrEmptySubtree = errors.New("empty subtree")
	// ErrNotReady is returned by session helpers that need a controller
	// before the first model has loaded.
	ErrNotReady = errors.New("controller not ready")
)
