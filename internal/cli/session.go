package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/thruflo/taskboard/internal/config"
	"github.com/thruflo/taskboard/internal/controller"
	"github.com/thruflo/taskboard/internal/logging"
	"github.com/thruflo/taskboard/internal/render"
	"github.com/thruflo/taskboard/internal/state"
)

// Global flags, shared by every command.
var (
	flagDir       string
	flagStorage   string
	flagEphemeral bool
	flagLogLevel  string
)

// pingTimeout bounds the startup reachability check for remote storage.
const pingTimeout = 3 * time.Second

// session is an opened board with its collaborators.
type session struct {
	dir      string
	cfg      *config.Config
	log      *logging.Logger
	renderer *render.Renderer
	ctl      *controller.Controller
	logFile  *os.File
}

type sessionOptions struct {
	// logOutput receives logs when no log file is configured. Nil means
	// stderr.
	logOutput io.Writer
	// animate keeps the delete animation delay; one-shot commands skip it.
	animate bool
}

// newBackend selects the storage backend for cfg. Tests override it.
var newBackend = func(ctx context.Context, cfg *config.Config, dir string, log *logging.Logger) (state.Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return state.NewMemoryBackend(), nil

	case config.DriverRedis:
		rb, err := state.NewRedisBackendFromURL(cfg.Storage.RedisURL, cfg.Storage.RedisPrefix)
		if err != nil {
			return nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := rb.Ping(pctx); err != nil {
			// Keep going; Storage reports the failure and the board runs
			// in memory.
			log.Warn("redis unreachable", "error", err)
		}
		return rb, nil

	default:
		return state.NewFileBackend(dir), nil
	}
}

// resolveConfig loads configuration for dir and applies the global flags.
func resolveConfig(dir string) (*config.Config, error) {
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, err
	}

	if flagStorage != "" {
		cfg.Storage.Driver = flagStorage
	}
	if flagEphemeral {
		cfg.Storage.Driver = config.DriverMemory
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// boardDir returns the directory named by --dir, or the working directory.
func boardDir() (string, error) {
	if flagDir != "" {
		return filepath.Abs(flagDir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return cwd, nil
}

// openSession loads the board for the current flags.
func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	dir, err := boardDir()
	if err != nil {
		return nil, err
	}
	cfg, err := resolveConfig(dir)
	if err != nil {
		return nil, err
	}

	s := &session{dir: dir, cfg: cfg}
	if err := s.setupLogging(opts.logOutput); err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg, dir, s.log)
	if err != nil {
		s.closeLog()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	ropts := []render.Option{render.WithRemoveDelay(cfg.UI.DeleteDelay)}
	if !opts.animate {
		ropts = append(ropts, render.WithScheduler(func(_ time.Duration, f func()) { f() }))
	}
	s.renderer = render.New(ropts...)
	s.ctl = controller.New(controller.Options{
		Storage:  state.NewStorage(backend, s.log),
		Renderer: s.renderer,
		Logger:   s.log,
	})

	if err := s.ctl.Open(ctx); err != nil {
		s.Close()
		return nil, err
	}
	s.log.Debug("board opened", "dir", dir, "storage", cfg.Storage.Driver)
	return s, nil
}

func (s *session) setupLogging(out io.Writer) error {
	level, err := logging.ParseLevel(s.cfg.Log.Level)
	if err != nil {
		return err
	}

	s.log = logging.New()
	s.log.SetLevel(level)

	switch {
	case s.cfg.Log.File != "":
		path := s.cfg.Log.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.dir, path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		s.logFile = f
		s.log.SetOutput(f)
	case out != nil:
		s.log.SetOutput(out)
	default:
		s.log.SetOutput(os.Stderr)
	}
	return nil
}

// Close releases storage and the log file.
func (s *session) Close() error {
	var errs []error
	if s.ctl != nil {
		errs = append(errs, s.ctl.Close())
	}
	errs = append(errs, s.closeLog())
	return errors.Join(errs...)
}

func (s *session) closeLog() error {
	if s.logFile == nil {
		return nil
	}
	err := s.logFile.Close()
	s.logFile = nil
	return err
}

// warnIfUnsaved tells the user when the last change only lives in memory.
func (s *session) warnIfUnsaved(w io.Writer) {
	if s.ctl.Degraded() {
		fmt.Fprintln(w, "warning: storage unavailable, the change was not saved")
	}
}
