package config

import (
	"github.com/crillab/gowcsp/gen"
	"github.com/crillab/gowcsp/wcsp"
)

// Config is the configuration of the gowcsp command.
type Config struct {
	Solver     SolverConfig     `yaml:"solver"`
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Random     RandomConfig     `yaml:"random"`
	Log        LogConfig        `yaml:"log"`
}

// SolverConfig tunes the search.
type SolverConfig struct {
	BinaryBranching  bool    `yaml:"binary_branching"`
	ConflictWeighted bool    `yaml:"conflict_weighted"`
	Epsilon          float64 `yaml:"epsilon"`
	NodeLimit        int64   `yaml:"node_limit"`
	Verbose          bool    `yaml:"verbose"`
}

// PreprocessConfig tunes the simplifications done before search.
type PreprocessConfig struct {
	EliminateDegreeOne bool `yaml:"eliminate_degree_one"`
	MergeIncluded      bool `yaml:"merge_included"`
	MaxTuples          int  `yaml:"max_tuples"`
}

// RandomConfig describes the random problems built by the random command.
type RandomConfig struct {
	Vars      int     `yaml:"vars"`
	Domain    int     `yaml:"domain"`
	Unary     int     `yaml:"unary"`
	Binary    int     `yaml:"binary"`
	Ternary   int     `yaml:"ternary"`
	Nary      int     `yaml:"nary"`
	NaryArity int     `yaml:"nary_arity"`
	Density   float64 `yaml:"density"`
	MaxCost   int64   `yaml:"max_cost"`
	HardRatio float64 `yaml:"hard_ratio"`
	Ub        int64   `yaml:"ub"`
	Seed      int64   `yaml:"seed"`
}

// LogConfig describes where and how search events are logged.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	p := gen.DefaultParams()
	opts := wcsp.DefaultOptions()
	return Config{
		Solver: SolverConfig{
			BinaryBranching:  opts.BinaryBranching,
			ConflictWeighted: opts.ConflictWeighted,
			Epsilon:          opts.Epsilon,
		},
		Preprocess: PreprocessConfig{
			EliminateDegreeOne: true,
			MergeIncluded:      true,
			MaxTuples:          1 << 16,
		},
		Random: RandomConfig{
			Vars:      p.NbVars,
			Domain:    p.DomainSize,
			Binary:    p.Arities[2],
			NaryArity: 4,
			Density:   p.Density,
			MaxCost:   int64(p.MaxCost),
			HardRatio: p.HardRatio,
			Seed:      p.Seed,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Options returns the search options described by c.
func (c SolverConfig) Options() wcsp.Options {
	return wcsp.Options{
		BinaryBranching:  c.BinaryBranching,
		ConflictWeighted: c.ConflictWeighted,
		Epsilon:          c.Epsilon,
		NodeLimit:        c.NodeLimit,
	}
}

// Options returns the preprocessing options described by c.
func (c PreprocessConfig) Options() wcsp.PreprocessOptions {
	return wcsp.PreprocessOptions{
		EliminateDegreeOne: c.EliminateDegreeOne,
		MergeIncluded:      c.MergeIncluded,
		MaxTuples:          c.MaxTuples,
	}
}

// Params returns the generator parameters described by c.
func (c RandomConfig) Params() gen.Params {
	arities := map[int]int{1: c.Unary, 2: c.Binary, 3: c.Ternary}
	if c.Nary > 0 {
		arities[c.NaryArity] += c.Nary
	}
	return gen.Params{
		NbVars:     c.Vars,
		DomainSize: c.Domain,
		Arities:    arities,
		Density:    c.Density,
		MaxCost:    wcsp.Cost(c.MaxCost),
		HardRatio:  c.HardRatio,
		Ub:         wcsp.Cost(c.Ub),
		Seed:       c.Seed,
	}
}
