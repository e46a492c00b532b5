package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tagtapper/internal/action"
	"tagtapper/internal/backlight"
	"tagtapper/internal/battery"
	"tagtapper/internal/config"
	"tagtapper/internal/fb"
	"tagtapper/internal/gesture"
	"tagtapper/internal/kiosk"
	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
	"tagtapper/internal/touch"
	"tagtapper/internal/ui"
)

const version = "0.1.0"

var (
	configPath  string
	logLevel    string
	touchDevice string
	fbDevice    string
)

var rootCmd = &cobra.Command{
	Use:   "tagtapper",
	Short: "Touch kiosk for a small SPI display",
	Long: `tagtapper draws a tabbed status kiosk straight into a framebuffer and
reads a resistive touch panel for swipes and long-press actions.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runKiosk,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/tagtapper/config.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	rootCmd.PersistentFlags().StringVar(&touchDevice, "touch-device", "", "touch input device; overrides config")
	rootCmd.PersistentFlags().StringVar(&fbDevice, "fb-device", "", "framebuffer device; overrides config")
	rootCmd.AddCommand(calibrateCmd)
}

// loadConfig reads the config file, applies flag overrides and sets up
// logging from the result.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		return nil, err
	}
	if logLevel != "" {
		conf.LogLevel = logLevel
	}
	if touchDevice != "" {
		conf.Touch.Device = touchDevice
	}
	if fbDevice != "" {
		conf.Framebuffer.Device = fbDevice
	}

	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if err := appLog.SetOutput(conf.LogFile); err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return conf, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func newTouchReader(conf *config.Config) *touch.Reader {
	return touch.NewReader(conf.Touch.Device, touch.Options{
		Grab:       conf.Touch.Grab,
		Retries:    conf.Touch.OpenRetries,
		RetryDelay: conf.Touch.RetryDelay(),
		QueueSize:  conf.Touch.QueueSize,
	})
}

func runKiosk(cmd *cobra.Command, _ []string) error {
	appLog.Info("tagtapper starting", "version", version)

	conf, err := loadConfig()
	if err != nil {
		return err
	}
	profile := conf.Calibration.Profile()

	appLog.Info("effective config",
		"config_path", configPath,
		"touch_device", conf.Touch.Device,
		"fb_device", conf.Framebuffer.Device,
		"fps", conf.Framebuffer.FPS,
		"hold_seconds", conf.Gesture.HoldSeconds,
		"raw_x", fmt.Sprintf("%d..%d", profile.RawXMin, profile.RawXMax),
		"raw_y", fmt.Sprintf("%d..%d", profile.RawYMin, profile.RawYMax),
	)
	if err := profile.Validate(); err != nil {
		appLog.Warn("calibration is degenerate, run 'tagtapper calibrate'", "err", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	// Nothing to show without a framebuffer.
	display, err := fb.Open(conf.Framebuffer.Device, conf.Framebuffer.SysfsRoot)
	if err != nil {
		appLog.Error("framebuffer unavailable", err, "device", conf.Framebuffer.Device)
		return err
	}
	defer display.Close()

	light, err := backlight.Open(conf.Backlight.GPIO, conf.Backlight.ActiveLow)
	if err != nil {
		appLog.Warn("backlight unavailable", "gpio", conf.Backlight.GPIO, "err", err)
		light, _ = backlight.Open("", false)
	}
	defer light.Close()
	if err := light.Set(true); err != nil {
		appLog.Warn("backlight on failed", "err", err)
	}

	reader := newTouchReader(conf)
	var events kiosk.EventSource
	if err := reader.Start(); err != nil {
		appLog.Error("touch unavailable, continuing without input", err, "device", conf.Touch.Device)
	} else {
		events = reader
	}
	defer reader.Stop(conf.Actions.JoinTimeout())

	var bat *battery.Poller
	if conf.Battery.Enabled {
		bat = battery.NewPoller(
			battery.NewI2CReader(conf.Battery.I2CBus, conf.Battery.Address),
			time.Duration(conf.Battery.PollSeconds)*time.Second,
		)
		go bat.Run(ctx)
	}

	exec := action.New(action.Config{
		Commands: map[model.ActionKind][]string{
			model.ActionReboot:   conf.Actions.Reboot,
			model.ActionShutdown: conf.Actions.Shutdown,
		},
		JoinTimeout: conf.Actions.JoinTimeout(),
		ExitDelay:   conf.Actions.ExitDelay(),
	}, reader, display, light)

	reg := ui.DefaultRegistry()
	geom := display.Geometry()
	app := &kiosk.App{
		State: kiosk.NewAppState(reg, profile, gesture.Config{
			HoldDuration:      conf.Gesture.HoldDuration(),
			AnimationDuration: conf.Gesture.AnimationDuration(),
			MoveCancelPx:      float64(conf.Gesture.MoveCancelPx),
			SwipePx:           conf.Gesture.SwipePx,
			SwipeDebounce:     conf.Gesture.SwipeDebounce(),
		}, conf.Gesture.SmoothingDepth),
		Renderer: ui.NewRenderer(geom.Width, geom.Height, reg),
		Display:  display,
		Executor: exec,
		Events:   events,
		Interval: conf.Framebuffer.FrameInterval(),
	}
	if bat != nil {
		app.Battery = bat
	}

	err = app.Run(ctx)
	appLog.Info("tagtapper exiting", "dropped_events", reader.Dropped(), "malformed_records", reader.Malformed())
	return err
}
