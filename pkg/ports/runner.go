package ports

import (
	"context"

	"github.com/canopyhq/canopy/pkg/domain"
)

// Runner executes a validated flow against a target page.
//
// How nodes translate to browser actions, whether AI services are invoked,
// and which automation backend is used are entirely the runner's business.
// The dispatcher hands over a flow that passed validation and collects the
// ordered result sequence; on error the returned results (possibly nil or
// partial) are still recorded.
//
// Runners should honor ctx cancellation, but the dispatcher imposes no
// timeout of its own: a runner that never settles keeps the dispatcher in
// its Running state.
type Runner interface {
	Run(ctx context.Context, flow domain.Flow) ([]domain.StepResult, error)
}
