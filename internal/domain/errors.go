package domain

import "errors"

// ErrInvalidRequest indicates a malformed direction/year/variant/table combination.
// It is always returned before any network activity.
var ErrInvalidRequest = errors.New("invalid request")

// ErrTransientNetwork marks a single failed attempt (timeout, reset, non-2xx status)
var ErrTransientNetwork = errors.New("transient network error")

// ErrTerminalTransfer indicates the retry budget for one request is exhausted
var ErrTerminalTransfer = errors.New("transfer failed")

// ErrManifestParse indicates a missing or malformed index manifest
var ErrManifestParse = errors.New("manifest parse error")

// ErrFilesystem indicates a directory or file could not be created or written
var ErrFilesystem = errors.New("filesystem error")

// ErrRebuildInProgress is returned when another rebuild already owns the root
var ErrRebuildInProgress = errors.New("index rebuild already in progress")

// ErrLocked is returned by lockers when the key is held by someone else
var ErrLocked = errors.New("resource is locked")
