package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/xupit3r/directcl/internal/tracer"
)

// Config represents the application configuration
type Config struct {
	Device  DeviceConfig  `mapstructure:"device"`
	Window  WindowConfig  `mapstructure:"window"`
	Tracer  TracerConfig  `mapstructure:"tracer"`
	Compute ComputeConfig `mapstructure:"compute"`
	Scene   SceneConfig   `mapstructure:"scene"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type DeviceConfig struct {
	// Type is "gpu" or "cpu".
	Type string `mapstructure:"type"`
}

type WindowConfig struct {
	Title  string `mapstructure:"title"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	VSync  bool   `mapstructure:"vsync"`
}

type TracerConfig struct {
	RaysPerPixel int      `mapstructure:"rays_per_pixel"`
	Multiray     bool     `mapstructure:"multiray"`
	MoveStep     float32  `mapstructure:"move_step"`
	LookStep     float32  `mapstructure:"look_step"`
	KernelFile   string   `mapstructure:"kernel_file"`
	Entry        string   `mapstructure:"entry"`
	IncludeDirs  []string `mapstructure:"include_dirs"`
	FPSInterval  int      `mapstructure:"fps_interval"`
}

type ComputeConfig struct {
	PrintBuildLog bool `mapstructure:"print_build_log"`
}

// SceneConfig overrides the built-in scene when Spheres is non-empty.
type SceneConfig struct {
	Spheres []SphereConfig `mapstructure:"spheres"`
}

type SphereConfig struct {
	Color    [3]float32 `mapstructure:"color"`
	Position [3]float32 `mapstructure:"position"`
	Emission float32    `mapstructure:"emission"`
	Radius   float32    `mapstructure:"radius"`
}

// SphereList returns the configured scene, or the built-in one when none is
// configured.
func (s SceneConfig) SphereList() []tracer.Sphere {
	if len(s.Spheres) == 0 {
		return tracer.DefaultScene()
	}
	out := make([]tracer.Sphere, len(s.Spheres))
	for i, sc := range s.Spheres {
		out[i] = tracer.Sphere{
			Color:    tracer.Vec3{X: sc.Color[0], Y: sc.Color[1], Z: sc.Color[2]},
			Position: tracer.Vec3{X: sc.Position[0], Y: sc.Position[1], Z: sc.Position[2]},
			Emission: sc.Emission,
			Radius:   sc.Radius,
		}
	}
	return out
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
	JSON    bool   `mapstructure:"json"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{Type: "gpu"},
		Window: WindowConfig{
			Title:  "directcl",
			Width:  800,
			Height: 600,
			VSync:  false,
		},
		Tracer: TracerConfig{
			RaysPerPixel: 16,
			Multiray:     false,
			MoveStep:     0.1,
			LookStep:     0.015707964, // pi / 200
			Entry:        "runKernel",
			IncludeDirs:  []string{".", "source"},
			FPSInterval:  100,
		},
		Compute: ComputeConfig{PrintBuildLog: true},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Dir returns the per-user configuration directory.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "finding home directory")
	}
	return filepath.Join(home, ".directcl"), nil
}

// Load loads configuration from file, environment, and defaults
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("DIRECTCL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	cfg.Tracer.KernelFile = expandPath(cfg.Tracer.KernelFile)
	cfg.Logging.File = expandPath(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !contains([]string{"gpu", "cpu"}, strings.ToLower(c.Device.Type)) {
		return fmt.Errorf("device.type must be gpu or cpu, got %q", c.Device.Type)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Tracer.RaysPerPixel < 1 {
		return errors.New("tracer.rays_per_pixel must be at least 1")
	}
	if c.Tracer.Entry == "" {
		return errors.New("tracer.entry must not be empty")
	}
	if c.Tracer.FPSInterval < 0 {
		return errors.New("tracer.fps_interval must not be negative")
	}
	for i, s := range c.Scene.Spheres {
		if s.Radius <= 0 {
			return fmt.Errorf("scene.spheres[%d].radius must be positive", i)
		}
	}

	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("device.type", cfg.Device.Type)

	v.SetDefault("window.title", cfg.Window.Title)
	v.SetDefault("window.width", cfg.Window.Width)
	v.SetDefault("window.height", cfg.Window.Height)
	v.SetDefault("window.vsync", cfg.Window.VSync)

	v.SetDefault("tracer.rays_per_pixel", cfg.Tracer.RaysPerPixel)
	v.SetDefault("tracer.multiray", cfg.Tracer.Multiray)
	v.SetDefault("tracer.move_step", cfg.Tracer.MoveStep)
	v.SetDefault("tracer.look_step", cfg.Tracer.LookStep)
	v.SetDefault("tracer.kernel_file", cfg.Tracer.KernelFile)
	v.SetDefault("tracer.entry", cfg.Tracer.Entry)
	v.SetDefault("tracer.include_dirs", cfg.Tracer.IncludeDirs)
	v.SetDefault("tracer.fps_interval", cfg.Tracer.FPSInterval)

	v.SetDefault("compute.print_build_log", cfg.Compute.PrintBuildLog)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.json", cfg.Logging.JSON)
}
