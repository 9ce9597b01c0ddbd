package repository

import "errors"

var (
	// ErrNoStore indicates no store is registered for a reference scheme
	ErrNoStore = errors.New("no image store for scheme")
)
