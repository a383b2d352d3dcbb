package optimize

import (
	gonumopt "gonum.org/v1/gonum/optimize"
)

// GonumMinimizer adapts gonum's derivative-free local optimisers to
// the Minimizer interface: the concrete stand-in for the generic
// numerical optimiser every driver in this package is written
// against, without this package needing to implement one itself.
// The zero value uses Nelder-Mead with gonum's default settings.
type GonumMinimizer struct {
	Method   gonumopt.Method
	Settings *gonumopt.Settings
}

func (m GonumMinimizer) Minimize(obj Objective, x0 []float64) ([]float64, float64, error) {
	method := m.Method
	if method == nil {
		method = &gonumopt.NelderMead{}
	}
	problem := gonumopt.Problem{
		Func: obj.Evaluate,
	}
	result, err := gonumopt.Minimize(problem, x0, m.Settings, method)
	if err != nil {
		return nil, 0, err
	}
	return result.X, result.F, nil
}
