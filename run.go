package handeye

import (
	"context"
	"fmt"
)

// Run executes one full calibration session: connect → home → collect →
// solve → persist. A session either completes and writes its artifacts or
// stops at the first fatal error; recoverable per-position failures are
// handled inside Collect.
func Run(ctx context.Context, r *Robot) error {
	r.logger.Info("Starting hand-eye calibration session")
	r.resetState()

	steps := []struct {
		name  string
		phase Phase
		fn    func(context.Context, *Robot) error
	}{
		{"Connect", PhaseConnecting, Connect},
		{"Home", PhaseHoming, Home},
		{"Collect", PhaseCollecting, Collect},
		{"Solve", PhaseOptimizing, Solve},
		{"Persist", PhasePersisting, Persist},
	}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.setPhase(step.phase)
		r.logger.Infof("=== %s ===", step.name)
		if err := step.fn(ctx, r); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	r.setPhase(PhaseDone)
	r.logger.Infof("Calibration complete: depth scale %.6f, RMSE %.3f mm, %d samples (%d skipped)",
		r.state.Result.DepthScale, r.state.Result.RMSE,
		r.state.Correspondences.Len(), r.state.Skipped)
	return nil
}
