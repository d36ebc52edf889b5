package domain

import "errors"

// ErrFlowNotFound is returned when a flow ID cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")
