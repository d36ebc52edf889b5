// Package middleware provides composable wrappers around a FlowStore.
package middleware

import "github.com/canopyhq/canopy/pkg/ports"

// Middleware allows wrapping a FlowStore to add behavior.
type Middleware func(ports.FlowStore) ports.FlowStore
