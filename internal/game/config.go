package game

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure from Config.Validate.
var ErrInvalidConfig = errors.New("game: invalid config")

// Config holds every tunable of the arena simulation. Zero-valued fields
// loaded from YAML fall back to DefaultConfig.
type Config struct {
	Grid       GridConfig       `yaml:"grid"`
	Arena      ArenaConfig      `yaml:"arena"`
	Navigation NavigationConfig `yaml:"navigation"`
	Combat     CombatConfig     `yaml:"combat"`
	Agents     AgentConfig      `yaml:"agents"`
	Player     PlayerConfig     `yaml:"player"`
	Difficulty DifficultyConfig `yaml:"difficulty"`
	Paths      PathConfig       `yaml:"paths"`
}

type GridConfig struct {
	Size     int     `yaml:"size"`
	CellSize float64 `yaml:"cell_size"`
}

// WallConfig is a wall given by centre and full size, as a level editor
// would describe it.
type WallConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Z      float64 `yaml:"z"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Depth  float64 `yaml:"depth"`
}

type ArenaConfig struct {
	// Bound clamps agent positions to [-Bound, Bound] on X and Z.
	Bound float64      `yaml:"bound"`
	Walls []WallConfig `yaml:"walls"`
}

type NavigationConfig struct {
	ReplanInterval    float64 `yaml:"replan_interval"`
	DirectMinDistance float64 `yaml:"direct_min_distance"`
	WaypointArrive    float64 `yaml:"waypoint_arrive"`
	WaypointConsume   float64 `yaml:"waypoint_consume"`
	BaseSpeed         float64 `yaml:"base_speed"`
	PushMargin        float64 `yaml:"push_margin"`
	FrameSkip         bool    `yaml:"frame_skip"`
	FrameRate         float64 `yaml:"frame_rate"`
	ViewCulling       bool    `yaml:"view_culling"`
	ViewCullAngleDeg  float64 `yaml:"view_cull_angle_deg"`
	ViewCullDistance  float64 `yaml:"view_cull_distance"`
}

type CombatConfig struct {
	Range              float64 `yaml:"range"`
	FireInterval       float64 `yaml:"fire_interval"`
	FOVDeg             float64 `yaml:"fov_deg"`
	AimDeg             float64 `yaml:"aim_deg"`
	MuzzleHeight       float64 `yaml:"muzzle_height"`
	ProjectileSpeed    float64 `yaml:"projectile_speed"`
	ProjectileDamage   int     `yaml:"projectile_damage"`
	ContactDamage      int     `yaml:"contact_damage"`
	PlayerShotSpeed    float64 `yaml:"player_shot_speed"`
	PlayerShotDamage   int     `yaml:"player_shot_damage"`
	ProjectileBound    float64 `yaml:"projectile_bound"`
	DeathImpulse       float64 `yaml:"death_impulse"`
	DeathLift          float64 `yaml:"death_lift"`
	Gravity            float64 `yaml:"gravity"`
	DyingTimeout       float64 `yaml:"dying_timeout"`
	AutoFireConeDeg    float64 `yaml:"auto_fire_cone_deg"`
	AutoFireRange      float64 `yaml:"auto_fire_range"`
	AutoFireInterval   float64 `yaml:"auto_fire_interval"`
	ProjectileHalfSize float64 `yaml:"projectile_half_size"`
}

type AgentConfig struct {
	MeleeHP      float64 `yaml:"melee_hp"`
	RangedHP     float64 `yaml:"ranged_hp"`
	HalfWidth    float64 `yaml:"half_width"`
	HalfHeight   float64 `yaml:"half_height"`
	RangedChance float64 `yaml:"ranged_chance"`
}

type PlayerConfig struct {
	Health         int     `yaml:"health"`
	DamageCooldown float64 `yaml:"damage_cooldown"`
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	StartX         float64 `yaml:"start_x"`
	StartZ         float64 `yaml:"start_z"`
	MoveSpeed      float64 `yaml:"move_speed"`
}

type DifficultyConfig struct {
	Interval float64 `yaml:"interval"`
	Step     float64 `yaml:"step"`
}

type PathConfig struct {
	Workers   int    `yaml:"workers"`
	QueueSize int    `yaml:"queue_size"`
	Subject   string `yaml:"subject"`
}

// DefaultArenaWalls is the stock arena: four outer walls and five
// inner partitions, all 4 units tall.
func DefaultArenaWalls() []WallConfig {
	return []WallConfig{
		{X: 0, Y: 2, Z: -25, Width: 51, Height: 4, Depth: 1},
		{X: 0, Y: 2, Z: 25, Width: 51, Height: 4, Depth: 1},
		{X: -25.5, Y: 2, Z: 0, Width: 1, Height: 4, Depth: 50},
		{X: 25.5, Y: 2, Z: 0, Width: 1, Height: 4, Depth: 50},

		{X: 0, Y: 2, Z: 0, Width: 20, Height: 4, Depth: 1},
		{X: -15, Y: 2, Z: 12.5, Width: 1, Height: 4, Depth: 25},
		{X: 15, Y: 2, Z: -12.5, Width: 1, Height: 4, Depth: 25},
		{X: 0, Y: 2, Z: -12.5, Width: 10, Height: 4, Depth: 1},
		{X: 0, Y: 2, Z: 12.5, Width: 10, Height: 4, Depth: 1},
	}
}

// DefaultConfig returns the stock arena tuning.
func DefaultConfig() Config {
	return Config{
		Grid: GridConfig{Size: 50, CellSize: 1},
		Arena: ArenaConfig{
			Bound: 24,
			Walls: DefaultArenaWalls(),
		},
		Navigation: NavigationConfig{
			ReplanInterval:    2.0,
			DirectMinDistance: 0.5,
			WaypointArrive:    0.5,
			WaypointConsume:   1.0,
			BaseSpeed:         2.0,
			PushMargin:        1.5,
			FrameSkip:         true,
			FrameRate:         30,
			ViewCulling:       false,
			ViewCullAngleDeg:  90,
			ViewCullDistance:  5,
		},
		Combat: CombatConfig{
			Range:              20,
			FireInterval:       2.0,
			FOVDeg:             60,
			AimDeg:             5,
			MuzzleHeight:       1.5,
			ProjectileSpeed:    20,
			ProjectileDamage:   5,
			ContactDamage:      10,
			PlayerShotSpeed:    50,
			PlayerShotDamage:   1,
			ProjectileBound:    50,
			DeathImpulse:       15,
			DeathLift:          0.3,
			Gravity:            9.8,
			DyingTimeout:       5,
			AutoFireConeDeg:    10,
			AutoFireRange:      40,
			AutoFireInterval:   0.2,
			ProjectileHalfSize: 0.1,
		},
		Agents: AgentConfig{
			MeleeHP:      3,
			RangedHP:     2,
			HalfWidth:    0.4,
			HalfHeight:   1.3,
			RangedChance: 0.25,
		},
		Player: PlayerConfig{
			Health:         100,
			DamageCooldown: 1.0,
			Width:          0.5,
			Height:         1.8,
			StartX:         0,
			StartZ:         20,
			MoveSpeed:      5,
		},
		Difficulty: DifficultyConfig{Interval: 30, Step: 0.1},
		Paths:      PathConfig{Workers: 2, QueueSize: 256, Subject: "arena.path"},
	}
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("game: read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML over DefaultConfig. Omitted fields keep their
// defaults; an explicit walls list replaces the stock arena.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("game: unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the simulation cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Grid.Size <= 0:
		return fmt.Errorf("%w: grid.size must be > 0", ErrInvalidConfig)
	case c.Grid.CellSize <= 0:
		return fmt.Errorf("%w: grid.cell_size must be > 0", ErrInvalidConfig)
	case c.Arena.Bound <= 0:
		return fmt.Errorf("%w: arena.bound must be > 0", ErrInvalidConfig)
	case c.Navigation.ReplanInterval <= 0:
		return fmt.Errorf("%w: navigation.replan_interval must be > 0", ErrInvalidConfig)
	case c.Navigation.BaseSpeed < 0:
		return fmt.Errorf("%w: navigation.base_speed must be >= 0", ErrInvalidConfig)
	case c.Navigation.FrameRate <= 0:
		return fmt.Errorf("%w: navigation.frame_rate must be > 0", ErrInvalidConfig)
	case c.Combat.FireInterval <= 0:
		return fmt.Errorf("%w: combat.fire_interval must be > 0", ErrInvalidConfig)
	case c.Agents.HalfWidth <= 0 || c.Agents.HalfHeight <= 0:
		return fmt.Errorf("%w: agents half extents must be > 0", ErrInvalidConfig)
	case c.Player.Health <= 0:
		return fmt.Errorf("%w: player.health must be > 0", ErrInvalidConfig)
	case c.Difficulty.Interval <= 0:
		return fmt.Errorf("%w: difficulty.interval must be > 0", ErrInvalidConfig)
	}
	for i, w := range c.Arena.Walls {
		if w.Width <= 0 || w.Depth <= 0 || w.Height <= 0 {
			return fmt.Errorf("%w: arena.walls[%d] has non-positive size", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("game: marshal config: %w", err)
	}
	return data, nil
}
