package main

import (
	"github.com/spf13/cobra"

	"tagtapper/internal/calibrate"
	"tagtapper/internal/fb"
	appLog "tagtapper/internal/log"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run the five-point touch calibration",
	Long: `Shows five targets on the framebuffer, records the raw touch position of
each and rewrites the touch_calibration section of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		display, err := fb.Open(conf.Framebuffer.Device, conf.Framebuffer.SysfsRoot)
		if err != nil {
			appLog.Error("framebuffer unavailable", err, "device", conf.Framebuffer.Device)
			return err
		}
		defer display.Close()

		reader := newTouchReader(conf)
		if err := reader.Start(); err != nil {
			appLog.Error("touch unavailable", err, "device", conf.Touch.Device)
			return err
		}
		defer reader.Stop(conf.Actions.JoinTimeout())

		geom := display.Geometry()
		tool := &calibrate.Tool{
			Events:     reader,
			Display:    display,
			ConfigPath: configPath,
			Width:      geom.Width,
			Height:     geom.Height,
			Interval:   conf.Framebuffer.FrameInterval(),
		}
		p, err := tool.Run(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Calibration saved: X=%d-%d, Y=%d-%d\n", p.RawXMin, p.RawXMax, p.RawYMin, p.RawYMax)
		return nil
	},
}
