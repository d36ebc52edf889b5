// Package runner provides reference implementations of ports.Runner.
//
// Real browser automation lives outside this repository; hosts inject
// their own runner (Playwright bridge, CDP client, AI agent). The runners
// here exist for local development and testing of flows without a browser.
package runner

import (
	"context"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Func adapts a function to the ports.Runner interface.
type Func func(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error)

// Run implements ports.Runner.
func (f Func) Run(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error) {
	return f(ctx, flow)
}
