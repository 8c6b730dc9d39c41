package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrLaunchInProgress is returned when a launch is requested while another one is outstanding.
	ErrLaunchInProgress = errors.New("launch in progress")
	// ErrOutsideHome is returned when a path is outside of the profile home directory.
	ErrOutsideHome = errors.New("path outside home")
	// ErrStale is returned when an async result arrives after the requester moved on.
	ErrStale = errors.New("stale result")
	// ErrModalClosed is returned when an operation needs the launcher to be open.
	ErrModalClosed = errors.New("launcher is not open")
)
