package config

import "github.com/iwvelando/deal-analyzer/internal/optimizer"

// OptimizerConfig enables the exact break-even solvers.
type OptimizerConfig struct {
	Enabled               bool    `yaml:"enabled,omitempty" mapstructure:"enabled"`
	TargetMonthlyCashFlow float64 `yaml:"targetMonthlyCashFlow,omitempty" mapstructure:"targetMonthlyCashFlow"`
	Tolerance             float64 `yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations         int     `yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

// Options converts the configuration into solver options.
func (o OptimizerConfig) Options() optimizer.Options {
	return optimizer.Options{
		TargetMonthlyCashFlow: o.TargetMonthlyCashFlow,
		Tolerance:             o.Tolerance,
		MaxIterations:         o.MaxIterations,
	}
}
