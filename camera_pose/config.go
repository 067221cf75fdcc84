package camerapose

// Config holds the depth-scale search parameters.
type Config struct {
	// InitialScale seeds the simplex. Depth sensors report near-metric
	// values, so the search starts at unity.
	InitialScale float64 `json:"initial_scale"`
	// MaxEvaluations bounds the number of objective evaluations before the
	// search is abandoned.
	MaxEvaluations int `json:"max_evaluations"`
	// Absolute and Relative are the function convergence tolerances, in mm
	// of registration RMSE.
	Absolute float64 `json:"absolute_tolerance"`
	Relative float64 `json:"relative_tolerance"`
	// Iterations is the window of consecutive evaluations the convergence
	// tolerances are checked over.
	Iterations int `json:"convergence_iterations"`
}

// DefaultConfig returns search parameters that converge well for tabletop
// workspaces observed by a depth camera at roughly one meter.
func DefaultConfig() Config {
	return Config{
		InitialScale:   1.0,
		MaxEvaluations: 100000,
		Absolute:       1e-6,
		Relative:       1e-6,
		Iterations:     50,
	}
}
