package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"pathviz/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the envelope of every config file: a kind selector and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// Kind is the only config kind this app understands.
const Kind = "pathfinding"

// Keys are snake_case since viper lowercases everything it reads.
type AppConfig struct {
	Grid   GridConfig   `yaml:"grid"`
	Replay ReplayConfig `yaml:"replay"`
	// ReplayDeadline is a fixed duration after which a replay is abandoned, e.g. {duration: 1m}.
	ReplayDeadline map[string]string `yaml:"replay_deadline"`
}

type CoordConfig struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

func (cc CoordConfig) Coord() grid_world.Coord {
	return grid_world.Coord{Row: cc.Row, Col: cc.Col}
}

// GridConfig describes the initial grid. A non-empty Layout takes precedence over the
// dimensions and marker positions.
type GridConfig struct {
	Rows   int         `yaml:"rows"`
	Cols   int         `yaml:"cols"`
	Start  CoordConfig `yaml:"start"`
	Finish CoordConfig `yaml:"finish"`
	Layout []string    `yaml:"layout"`
}

// ReplayConfig holds the animation timing: one visited node per VisitedDelay, then one path
// node per PathDelay. Element updates are batched over BatchWindow before being published.
type ReplayConfig struct {
	VisitedDelay time.Duration `yaml:"visited_delay"`
	PathDelay    time.Duration `yaml:"path_delay"`
	BatchWindow  time.Duration `yaml:"batch_window"`
}

// Default returns the reference configuration: a 20x50 grid, start (10,15), finish (10,35),
// 10ms per visited node and 50ms per path node.
func Default() *AppConfig {
	return &AppConfig{
		Grid: GridConfig{
			Rows:   grid_world.DEFAULT_ROWS,
			Cols:   grid_world.DEFAULT_COLS,
			Start:  CoordConfig{Row: grid_world.DEFAULT_START_ROW, Col: grid_world.DEFAULT_START_COL},
			Finish: CoordConfig{Row: grid_world.DEFAULT_FINISH_ROW, Col: grid_world.DEFAULT_FINISH_COL},
		},
		Replay: ReplayConfig{
			VisitedDelay: 10 * time.Millisecond,
			PathDelay:    50 * time.Millisecond,
			BatchWindow:  20 * time.Millisecond,
		},
		ReplayDeadline: map[string]string{},
	}
}

var ErrUnknownKind = errors.New("unknown config kind")

// FromYaml reads the config at path. Fields absent from the file keep their Default values.
func FromYaml(path string) (*AppConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != Kind {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, outerConfig.Kind)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := Default()
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}
	return innerConfig, nil
}

// FromYamlOrDefault is FromYaml, except that a missing file yields Default.
func FromYamlOrDefault(path string) (*AppConfig, error) {
	cfg, err := FromYaml(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// BuildGrid creates the initial grid described by the config.
func (cfg *AppConfig) BuildGrid() (*grid_world.Grid, error) {
	if len(cfg.Grid.Layout) > 0 {
		return grid_world.FromLayout(cfg.Grid.Layout)
	}
	return grid_world.NewGrid(
		cfg.Grid.Rows,
		cfg.Grid.Cols,
		cfg.Grid.Start.Coord(),
		cfg.Grid.Finish.Coord())
}

// WithReplayDeadline returns a context extended by the replay deadline, if one is specified.
func (cfg *AppConfig) WithReplayDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.ReplayDeadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, fmt.Errorf("replay deadline: %w", err)
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}
