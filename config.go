package jinngine

import (
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/sheldonrobinson/jinngine-sub001/broadphase"
	"github.com/sheldonrobinson/jinngine-sub001/contact"
	"github.com/sheldonrobinson/jinngine-sub001/solver"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const DEFAULT_WORKERS = 1

// Solver names accepted by Config.Solver
const (
	SolverPGS  = "pgs"
	SolverNNCG = "nncg"
)

// Broad-phase names accepted by Config.BroadPhase
const (
	BroadPhaseExhaustive = "exhaustive"
	BroadPhaseGrid       = "grid"
	BroadPhaseSweep      = "sweep"
)

// Config holds every tunable of a World
type Config struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity mgl64.Vec3 `yaml:"gravity"`
	// Workers is the number of goroutines used for contact refresh and island solving
	Workers int `yaml:"workers"`

	// Envelope is the distance under which contacts are generated before geometries touch
	Envelope float64 `yaml:"envelope"`
	// Shell is the separation under which restitution applies
	Shell            float64 `yaml:"shell"`
	Epsilon          float64 `yaml:"epsilon"`
	GJKMaxIterations int     `yaml:"gjk_max_iterations"`
	EPAMaxIterations int     `yaml:"epa_max_iterations"`
	FeatureTolerance float64 `yaml:"feature_tolerance"`
	// Correction is the fraction of penetration recovered per step, capped by MaxCorrection
	Correction    float64 `yaml:"correction"`
	MaxCorrection float64 `yaml:"max_correction"`

	Solver         string  `yaml:"solver"`
	Iterations     int     `yaml:"iterations"`
	WarmStart      bool    `yaml:"warm_start"`
	WarmStartDecay float64 `yaml:"warm_start_decay"`

	BroadPhase   string  `yaml:"broadphase"`
	GridCellSize float64 `yaml:"grid_cell_size"`
	GridCells    int     `yaml:"grid_cells"`
}

func DefaultConfig() Config {
	c := contact.DefaultConfig()

	return Config{
		Gravity:          mgl64.Vec3{0, -9.81, 0},
		Workers:          DEFAULT_WORKERS,
		Envelope:         c.Envelope,
		Shell:            c.Shell,
		Epsilon:          c.Epsilon,
		GJKMaxIterations: c.GJKMaxIterations,
		EPAMaxIterations: c.EPAMaxIterations,
		FeatureTolerance: c.FeatureTolerance,
		Correction:       c.Correction,
		MaxCorrection:    c.MaxCorrection,
		Solver:           SolverNNCG,
		Iterations:       20,
		WarmStart:        true,
		WarmStartDecay:   1,
		BroadPhase:       BroadPhaseSweep,
		GridCellSize:     2,
		GridCells:        4096,
	}
}

// LoadConfig reads a YAML file over the defaults: absent keys keep their default value
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}

	return cfg, cfg.Validate()
}

// Validate reports every invalid field at once
func (c Config) Validate() error {
	var err error

	if c.Workers < 1 {
		err = multierr.Append(err, errors.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Envelope <= 0 {
		err = multierr.Append(err, errors.Errorf("envelope must be positive, got %v", c.Envelope))
	}
	if c.Shell < 0 || c.Shell > c.Envelope {
		err = multierr.Append(err, errors.Errorf("shell must lie in [0, envelope], got %v", c.Shell))
	}
	if c.Epsilon <= 0 {
		err = multierr.Append(err, errors.Errorf("epsilon must be positive, got %v", c.Epsilon))
	}
	if c.GJKMaxIterations < 1 || c.EPAMaxIterations < 1 {
		err = multierr.Append(err, errors.Errorf("iteration caps must be at least 1, got gjk=%d epa=%d",
			c.GJKMaxIterations, c.EPAMaxIterations))
	}
	if c.Correction < 0 || c.Correction > 1 {
		err = multierr.Append(err, errors.Errorf("correction must lie in [0, 1], got %v", c.Correction))
	}
	if c.MaxCorrection < 0 {
		err = multierr.Append(err, errors.Errorf("max correction must not be negative, got %v", c.MaxCorrection))
	}
	if c.Iterations < 0 {
		err = multierr.Append(err, errors.Errorf("iterations must not be negative, got %d", c.Iterations))
	}
	if c.WarmStartDecay < 0 || c.WarmStartDecay > 1 {
		err = multierr.Append(err, errors.Errorf("warm start decay must lie in [0, 1], got %v", c.WarmStartDecay))
	}

	switch c.Solver {
	case SolverPGS, SolverNNCG:
	default:
		err = multierr.Append(err, errors.Errorf("unknown solver %q", c.Solver))
	}

	switch c.BroadPhase {
	case BroadPhaseExhaustive, BroadPhaseSweep:
	case BroadPhaseGrid:
		if c.GridCellSize <= 0 || c.GridCells < 1 {
			err = multierr.Append(err, errors.Errorf("grid needs a positive cell size and cell count, got %v and %d",
				c.GridCellSize, c.GridCells))
		}
	default:
		err = multierr.Append(err, errors.Errorf("unknown broad-phase %q", c.BroadPhase))
	}

	return err
}

// Contact returns the narrow-phase settings
func (c Config) Contact() contact.Config {
	return contact.Config{
		Envelope:         c.Envelope,
		Shell:            c.Shell,
		Epsilon:          c.Epsilon,
		GJKMaxIterations: c.GJKMaxIterations,
		EPAMaxIterations: c.EPAMaxIterations,
		FeatureTolerance: c.FeatureTolerance,
		Correction:       c.Correction,
		MaxCorrection:    c.MaxCorrection,
	}
}

// NewSolver builds the configured solver
func (c Config) NewSolver() solver.Solver {
	if c.Solver == SolverPGS {
		return &solver.ProjectedGaussSeidel{Iterations: c.Iterations, WarmStart: c.WarmStart, Decay: c.WarmStartDecay}
	}

	s := solver.NewNNCG(c.Iterations)
	s.WarmStart, s.Decay = c.WarmStart, c.WarmStartDecay

	return s
}

// NewBroadPhase builds the configured broad-phase strategy
func (c Config) NewBroadPhase(filter broadphase.Filter) broadphase.Strategy {
	switch c.BroadPhase {
	case BroadPhaseExhaustive:
		return broadphase.NewExhaustive(filter)
	case BroadPhaseGrid:
		return broadphase.NewGrid(c.GridCellSize, c.GridCells, filter)
	default:
		return broadphase.NewSweepAndPrune(filter)
	}
}
