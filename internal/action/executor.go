// Package action runs the irreversible system command behind a destructive
// tab, after every hardware resource has been released.
package action

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	appLog "tagtapper/internal/log"
	"tagtapper/internal/model"
)

// Stopper is the touch reader side of teardown.
type Stopper interface {
	Stop(timeout time.Duration) bool
}

// Config configures an Executor.
type Config struct {
	// Commands maps each action to argv.
	Commands map[model.ActionKind][]string
	// JoinTimeout bounds the wait for the reader goroutine.
	JoinTimeout time.Duration
	// ExitDelay is the pause between spawning the command and exiting.
	ExitDelay time.Duration
}

// Executor performs the ordered teardown and launch. Any resource may be
// nil when the corresponding subsystem never started.
type Executor struct {
	cfg Config

	reader      Stopper
	framebuffer io.Closer
	display     []io.Closer

	spawn func(argv []string) error
	exit  func(code int)
	sleep func(time.Duration)
}

// New returns an executor. display closers are released in order after
// the framebuffer.
func New(cfg Config, reader Stopper, framebuffer io.Closer, display ...io.Closer) *Executor {
	if cfg.JoinTimeout <= 0 {
		cfg.JoinTimeout = time.Second
	}
	if cfg.ExitDelay <= 0 {
		cfg.ExitDelay = 500 * time.Millisecond
	}
	return &Executor{
		cfg:         cfg,
		reader:      reader,
		framebuffer: framebuffer,
		display:     display,
		spawn:       spawnDetached,
		exit:        os.Exit,
		sleep:       time.Sleep,
	}
}

// Execute tears everything down and launches the command for req. It does
// not return under normal operation: the process exits even when the
// launch fails.
func (e *Executor) Execute(req model.ActionRequest) {
	appLog.Info("executing system action", "action", req.Kind.String())

	// 1. Stop the touch reader and join it.
	if e.reader != nil {
		if !e.reader.Stop(e.cfg.JoinTimeout) {
			appLog.Warn("touch reader still running, continuing teardown")
		}
	}
	// 2. Release the framebuffer mapping.
	if e.framebuffer != nil {
		if err := e.framebuffer.Close(); err != nil {
			appLog.Error("framebuffer close failed", err)
		}
	}
	// 3. Release display context.
	for _, c := range e.display {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			appLog.Error("display release failed", err)
		}
	}
	// 4. Launch.
	if err := e.launch(req); err != nil {
		appLog.Error("system action failed", err, "action", req.Kind.String())
	}
	// 5. Exit shortly after.
	e.sleep(e.cfg.ExitDelay)
	e.exit(0)
}

func (e *Executor) launch(req model.ActionRequest) error {
	argv := e.cfg.Commands[req.Kind]
	if len(argv) == 0 {
		return fmt.Errorf("action: no command for %s: %w", req.Kind, model.ErrActionLaunch)
	}
	if err := e.spawn(argv); err != nil {
		return fmt.Errorf("action: %s: %w: %w", argv[0], model.ErrActionLaunch, err)
	}
	appLog.Info("system action launched", "action", req.Kind.String(), "command", argv)
	return nil
}

// spawnDetached starts argv in its own session and does not wait for it.
func spawnDetached(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
