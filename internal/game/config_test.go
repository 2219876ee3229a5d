package game

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConfig_DefaultsValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if n := len(DefaultConfig().Arena.Walls); n != 9 {
		t.Fatalf("default arena has %d walls, want 9", n)
	}
}

func TestConfig_PartialYAMLKeepsDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("navigation:\n  replan_interval: 0.5\n  frame_skip: false\n"))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Navigation.ReplanInterval != 0.5 {
		t.Fatalf("replan_interval = %.2f, want 0.5", cfg.Navigation.ReplanInterval)
	}
	if cfg.Navigation.FrameSkip {
		t.Fatal("frame_skip should be off")
	}
	if cfg.Navigation.BaseSpeed != 2.0 || cfg.Combat.Range != 20 {
		t.Fatal("omitted fields lost their defaults")
	}
	if len(cfg.Arena.Walls) != 9 {
		t.Fatalf("walls = %d, want the stock 9", len(cfg.Arena.Walls))
	}
}

func TestConfig_WallsReplaceArena(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
arena:
  walls:
    - {x: 0, y: 2, z: 0, width: 4, height: 4, depth: 1}
`))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Arena.Walls) != 1 || cfg.Arena.Walls[0].Width != 4 {
		t.Fatalf("walls = %+v", cfg.Arena.Walls)
	}
	if cfg.Arena.Bound != 24 {
		t.Fatalf("bound = %.1f, want default 24", cfg.Arena.Bound)
	}
}

func TestConfig_RejectsBadValues(t *testing.T) {
	cases := []string{
		"grid:\n  size: 0\n",
		"navigation:\n  replan_interval: -1\n",
		"combat:\n  fire_interval: 0\n",
		"arena:\n  walls:\n    - {x: 0, y: 2, z: 0, width: 0, height: 4, depth: 1}\n",
	}
	for _, c := range cases {
		if _, err := ParseConfig([]byte(c)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("ParseConfig(%q) err = %v, want ErrInvalidConfig", c, err)
		}
	}
}

func TestConfig_MalformedYAML(t *testing.T) {
	_, err := ParseConfig([]byte("grid: [unterminated"))
	if err == nil || errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want a decode error", err)
	}
}

func TestConfig_LoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arena.yaml")

	want := DefaultConfig()
	want.Paths.Workers = 4
	data, err := want.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("loaded config differs:\n got %+v\nwant %+v", got, want)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file err = %v, want ErrNotExist", err)
	}
}

func TestConfig_ShippedFileMatchesDefaults(t *testing.T) {
	got, err := LoadConfig(filepath.Join("..", "..", "configs", "arena.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !reflect.DeepEqual(got, DefaultConfig()) {
		t.Fatalf("configs/arena.yaml drifted from DefaultConfig:\n got %+v\nwant %+v", got, DefaultConfig())
	}
}
