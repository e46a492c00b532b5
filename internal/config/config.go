package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"tagtapper/internal/model"
)

// TouchConfig describes the touch digitizer input device.
type TouchConfig struct {
	// Device is the evdev character device path.
	Device string `yaml:"device"`
	// Grab requests exclusive access (EVIOCGRAB) so the console does not
	// also receive the events.
	Grab bool `yaml:"grab"`
	// OpenRetries is how many extra open attempts are made before the
	// touch subsystem gives up.
	OpenRetries int `yaml:"open_retries"`
	// RetryDelayMs is the initial delay between open attempts.
	RetryDelayMs int `yaml:"retry_delay_ms"`
	// QueueSize bounds the reader -> main loop event queue.
	QueueSize int `yaml:"queue_size"`
}

// FramebufferConfig describes the output device.
type FramebufferConfig struct {
	Device string `yaml:"device"`
	// SysfsRoot is where <root>/<fbN>/virtual_size and modes live.
	SysfsRoot string `yaml:"sysfs_root"`
	// FPS is the render cadence of the main loop.
	FPS int `yaml:"fps"`
}

// CalibrationPoint is one target recorded by the calibration tool.
type CalibrationPoint struct {
	RawX    int `yaml:"raw_x"`
	RawY    int `yaml:"raw_y"`
	ScreenX int `yaml:"screen_x"`
	ScreenY int `yaml:"screen_y"`
}

// CalibrationConfig is the on-disk calibration record. Pointers distinguish
// absent keys from explicit zeros; see Profile.
type CalibrationConfig struct {
	RawXMin      *int `yaml:"raw_x_min,omitempty"`
	RawXMax      *int `yaml:"raw_x_max,omitempty"`
	RawYMin      *int `yaml:"raw_y_min,omitempty"`
	RawYMax      *int `yaml:"raw_y_max,omitempty"`
	ScreenWidth  *int `yaml:"screen_width,omitempty"`
	ScreenHeight *int `yaml:"screen_height,omitempty"`

	Points []CalibrationPoint `yaml:"calibration_points,omitempty"`
}

// GestureConfig holds the gesture thresholds.
type GestureConfig struct {
	HoldSeconds      float64 `yaml:"hold_seconds"`
	AnimationSeconds float64 `yaml:"animation_seconds"`
	MoveCancelPx     int     `yaml:"move_cancel_px"`
	SwipePx          int     `yaml:"swipe_px"`
	SwipeDebounceMs  int     `yaml:"swipe_debounce_ms"`
	SmoothingDepth   int     `yaml:"smoothing_depth"`
}

// ActionsConfig maps destructive tabs to system commands.
type ActionsConfig struct {
	Reboot        []string `yaml:"reboot"`
	Shutdown      []string `yaml:"shutdown"`
	ExitDelayMs   int      `yaml:"exit_delay_ms"`
	JoinTimeoutMs int      `yaml:"join_timeout_ms"`
}

// BacklightConfig optionally drives the panel backlight through a GPIO.
type BacklightConfig struct {
	// GPIO is a periph pin name such as "GPIO18". Empty disables it.
	GPIO      string `yaml:"gpio"`
	ActiveLow bool   `yaml:"active_low"`
}

// BatteryConfig enables the I2C battery gauge shown in the header.
type BatteryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	I2CBus      string `yaml:"i2c_bus"`
	Address     uint16 `yaml:"address"`
	PollSeconds int    `yaml:"poll_seconds"`
}

// Config is the top-level application configuration.
type Config struct {
	Touch       TouchConfig       `yaml:"touch"`
	Framebuffer FramebufferConfig `yaml:"framebuffer"`
	Calibration CalibrationConfig `yaml:"touch_calibration"`
	Gesture     GestureConfig     `yaml:"gesture"`
	Actions     ActionsConfig     `yaml:"actions"`
	Backlight   BacklightConfig   `yaml:"backlight"`
	Battery     BatteryConfig     `yaml:"battery"`

	LogLevel string `yaml:"log_level"`
	// LogFile, if set, receives log output instead of stderr.
	LogFile string `yaml:"log_file"`
}

const (
	DefaultTouchDevice = "/dev/input/by-path/platform-3f204000.spi-cs-1-event"
	DefaultFBDevice    = "/dev/fb1"
	DefaultSysfsRoot   = "/sys/class/graphics"
	DefaultBatteryAddr = 0x57
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Touch: TouchConfig{Grab: true},
	}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly. The calibration record
// is left alone: its defaults are applied by Profile.
func (c *Config) Normalize() {
	if c.Touch.Device == "" {
		c.Touch.Device = DefaultTouchDevice
	}
	if c.Touch.OpenRetries < 0 {
		c.Touch.OpenRetries = 0
	} else if c.Touch.OpenRetries == 0 {
		c.Touch.OpenRetries = 3
	}
	if c.Touch.RetryDelayMs <= 0 {
		c.Touch.RetryDelayMs = 500
	}
	if c.Touch.QueueSize <= 0 {
		c.Touch.QueueSize = 256
	}

	if c.Framebuffer.Device == "" {
		c.Framebuffer.Device = DefaultFBDevice
	}
	if c.Framebuffer.SysfsRoot == "" {
		c.Framebuffer.SysfsRoot = DefaultSysfsRoot
	}
	if c.Framebuffer.FPS <= 0 {
		c.Framebuffer.FPS = 30
	}

	g := &c.Gesture
	if g.HoldSeconds <= 0 {
		g.HoldSeconds = 5.0
	}
	if g.AnimationSeconds <= 0 {
		g.AnimationSeconds = 1.0
	}
	if g.MoveCancelPx <= 0 {
		g.MoveCancelPx = 30
	}
	if g.SwipePx <= 0 {
		g.SwipePx = 50
	}
	if g.SwipeDebounceMs <= 0 {
		g.SwipeDebounceMs = 200
	}
	if g.SmoothingDepth <= 0 {
		g.SmoothingDepth = 4
	}

	if len(c.Actions.Reboot) == 0 {
		c.Actions.Reboot = []string{"reboot"}
	}
	if len(c.Actions.Shutdown) == 0 {
		c.Actions.Shutdown = []string{"poweroff"}
	}
	if c.Actions.ExitDelayMs <= 0 {
		c.Actions.ExitDelayMs = 500
	}
	if c.Actions.JoinTimeoutMs <= 0 {
		c.Actions.JoinTimeoutMs = 1000
	}

	if c.Battery.Address == 0 {
		c.Battery.Address = DefaultBatteryAddr
	}
	if c.Battery.PollSeconds <= 0 {
		c.Battery.PollSeconds = 30
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Profile resolves the calibration record into a CalibrationProfile,
// using 0..4095 for absent raw keys and 480x320 for absent screen keys.
func (c CalibrationConfig) Profile() model.CalibrationProfile {
	p := model.DefaultProfile()
	setIf := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setIf(&p.RawXMin, c.RawXMin)
	setIf(&p.RawXMax, c.RawXMax)
	setIf(&p.RawYMin, c.RawYMin)
	setIf(&p.RawYMax, c.RawYMax)
	setIf(&p.ScreenWidth, c.ScreenWidth)
	setIf(&p.ScreenHeight, c.ScreenHeight)
	if p.ScreenWidth <= 0 {
		p.ScreenWidth = model.DefaultScreenWidth
	}
	if p.ScreenHeight <= 0 {
		p.ScreenHeight = model.DefaultScreenHeight
	}
	return p
}

// CalibrationFromProfile builds a full calibration record.
func CalibrationFromProfile(p model.CalibrationProfile, points []CalibrationPoint) CalibrationConfig {
	v := func(i int) *int { return &i }
	return CalibrationConfig{
		RawXMin:      v(p.RawXMin),
		RawXMax:      v(p.RawXMax),
		RawYMin:      v(p.RawYMin),
		RawYMax:      v(p.RawYMax),
		ScreenWidth:  v(p.ScreenWidth),
		ScreenHeight: v(p.ScreenHeight),
		Points:       points,
	}
}

// Duration helpers used by the wiring code.

func (g GestureConfig) HoldDuration() time.Duration {
	return time.Duration(g.HoldSeconds * float64(time.Second))
}

func (g GestureConfig) AnimationDuration() time.Duration {
	return time.Duration(g.AnimationSeconds * float64(time.Second))
}

func (g GestureConfig) SwipeDebounce() time.Duration {
	return time.Duration(g.SwipeDebounceMs) * time.Millisecond
}

func (a ActionsConfig) ExitDelay() time.Duration {
	return time.Duration(a.ExitDelayMs) * time.Millisecond
}

func (a ActionsConfig) JoinTimeout() time.Duration {
	return time.Duration(a.JoinTimeoutMs) * time.Millisecond
}

func (t TouchConfig) RetryDelay() time.Duration {
	return time.Duration(t.RetryDelayMs) * time.Millisecond
}

func (f FramebufferConfig) FrameInterval() time.Duration {
	return time.Second / time.Duration(f.FPS)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Grab defaults to true when the touch section omits it.
	cfg := Config{Touch: TouchConfig{Grab: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// SaveCalibration rewrites only the touch_calibration section of the file
// at path, preserving every other key (including ones this program does not
// know about). A missing file is created.
func SaveCalibration(path string, calib CalibrationConfig) error {
	if path == "" {
		return errors.New("config path is empty")
	}

	var doc map[string]any
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	doc["touch_calibration"] = calib

	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return writeAtomic(path, out)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tagtapper-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
