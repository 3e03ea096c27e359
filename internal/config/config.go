// Package config loads engine settings from a YAML file, falling back to
// defaults for anything unset.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Seed   int64  `yaml:"seed"`
	DBPath string `yaml:"db_path"`

	// RenderRadius in chunks around the player's column.
	RenderRadius int64 `yaml:"render_radius"`

	World World `yaml:"world"`
	Cull  Cull  `yaml:"cull"`
	Light Light `yaml:"light"`
	Mesh  Mesh  `yaml:"mesh"`
}

type World struct {
	WaterLevel    int     `yaml:"water_level"`
	WaterMinDepth int     `yaml:"water_min_depth"`
	WaterCutoff   float64 `yaml:"water_cutoff"`
}

type Cull struct {
	ExemptNearest  int     `yaml:"exempt_nearest"`
	MinAngularSize float64 `yaml:"min_angular_size"`
	SampleFraction float64 `yaml:"sample_fraction"`
	DistanceRatio  float64 `yaml:"distance_ratio"`

	RasterWidth  int `yaml:"raster_width"`
	RasterHeight int `yaml:"raster_height"`
}

type Light struct {
	NearRadius   int64    `yaml:"near_radius"`
	NearCooldown Duration `yaml:"near_cooldown"`
	FarCooldown  Duration `yaml:"far_cooldown"`
}

// Duration parses "2s"-style YAML values into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "duration %q", s)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Mesh struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

func Default() Config {
	return Config{
		Seed:         1,
		DBPath:       "voxelworld.db",
		RenderRadius: 8,
		World: World{
			WaterLevel:    12,
			WaterMinDepth: 3,
			WaterCutoff:   0.62,
		},
		Cull: Cull{
			ExemptNearest:  4,
			MinAngularSize: 45,
			SampleFraction: 0.8,
			DistanceRatio:  0.9,
			RasterWidth:    128,
			RasterHeight:   72,
		},
		Light: Light{
			NearRadius:   4,
			NearCooldown: Duration(2 * time.Second),
			FarCooldown:  Duration(15 * time.Second),
		},
		Mesh: Mesh{
			Workers:    2,
			QueueDepth: 8,
		},
	}
}

// Load reads a YAML config. A missing file is not an error; the defaults
// apply unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RenderRadius < 1 {
		return errors.New("render_radius must be at least 1")
	}
	if c.Cull.SampleFraction <= 0 || c.Cull.SampleFraction > 1 {
		return errors.New("cull.sample_fraction must be in (0,1]")
	}
	if c.Mesh.Workers < 1 {
		return errors.New("mesh.workers must be at least 1")
	}
	return nil
}
