package ports

import (
	"context"

	"github.com/canopyhq/canopy/pkg/domain"
)

// FlowStore defines the interface for persisting saved flows.
type FlowStore interface {
	// Save persists the flow under its ID, overwriting any previous
	// version.
	Save(ctx context.Context, flow domain.Flow) error

	// Load retrieves a flow by ID.
	// Returns domain.ErrFlowNotFound if the flow does not exist.
	Load(ctx context.Context, id string) (domain.Flow, error)

	// Delete removes a flow. Deleting a missing flow is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all saved flows.
	List(ctx context.Context) ([]string, error)
}
