// Package tool runs the external build and server processes of a generated
// project and probes the endpoints the server exposes.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/p-blackswan/forge/internal/errors"
)

// RunnerConfig describes how to build and run the generated project.
type RunnerConfig struct {
	// Dir is the project directory both commands run in.
	Dir       string
	Command   string
	BuildArgs []string
	RunArgs   []string
	// BuildTimeout bounds a single build (0 = 10m).
	BuildTimeout time.Duration
	// StopGrace is how long Stop waits after SIGTERM before SIGKILL (0 = 3s).
	StopGrace time.Duration
}

// BuildResult is the captured outcome of one build.
type BuildResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the build exited with status 0.
func (r BuildResult) Success() bool { return r.ExitCode == 0 }

// Runner invokes the external build/run commands.
type Runner struct {
	cfg    RunnerConfig
	logger zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig, logger zerolog.Logger) *Runner {
	if cfg.BuildTimeout == 0 {
		cfg.BuildTimeout = 10 * time.Minute
	}
	if cfg.StopGrace == 0 {
		cfg.StopGrace = 3 * time.Second
	}
	return &Runner{cfg: cfg, logger: logger.With().Str("component", "tool.runner").Logger()}
}

// Build runs the build command synchronously. A non-zero exit is reported in the
// result, not as an error; the error is reserved for failing to run the command.
func (r *Runner) Build(ctx context.Context) (BuildResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.BuildTimeout)
	defer cancel()

	// #nosec G204 - command and args come from process configuration.
	cmd := exec.CommandContext(ctx, r.cfg.Command, r.cfg.BuildArgs...)
	cmd.Dir = r.cfg.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug().
		Str("command", r.cfg.Command).
		Strs("args", r.cfg.BuildArgs).
		Str("dir", r.cfg.Dir).
		Msg("build starting")

	err := cmd.Run()
	res := BuildResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("%w: run %s: %w", perrors.ErrProcess, r.cfg.Command, err)
		}
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 && ctx.Err() != nil {
			return res, fmt.Errorf("%w: build %s: %w", perrors.ErrProcess, r.cfg.Command, ctx.Err())
		}
	}

	r.logger.Debug().Int("exit_code", res.ExitCode).Msg("build finished")
	return res, nil
}

// Start spawns the server in its own process group. The caller owns the
// returned process and must Stop it.
func (r *Runner) Start(ctx context.Context) (*ServerProcess, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G204 - command and args come from process configuration.
	cmd := exec.Command(r.cfg.Command, r.cfg.RunArgs...)
	cmd.Dir = r.cfg.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	p := &ServerProcess{
		cmd:    cmd,
		grace:  r.cfg.StopGrace,
		done:   make(chan struct{}),
		logger: r.logger,
	}
	cmd.Stdout = &p.output
	cmd.Stderr = &p.output

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", perrors.ErrProcess, r.cfg.Command, err)
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	r.logger.Info().
		Int("pid", cmd.Process.Pid).
		Str("command", r.cfg.Command).
		Strs("args", r.cfg.RunArgs).
		Msg("server process started")
	return p, nil
}

// ServerProcess is a spawned server. Stop is idempotent and safe to defer.
type ServerProcess struct {
	cmd     *exec.Cmd
	grace   time.Duration
	output  syncBuffer
	done    chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
	logger   zerolog.Logger
}

// Pid returns the process id.
func (p *ServerProcess) Pid() int { return p.cmd.Process.Pid }

// Exited reports whether the process has already terminated.
func (p *ServerProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Output returns what the server has written to stdout and stderr so far.
func (p *ServerProcess) Output() string { return p.output.String() }

// Stop terminates the whole process group: SIGTERM, then SIGKILL after the grace period.
func (p *ServerProcess) Stop() error {
	p.stopOnce.Do(func() {
		if p.Exited() {
			return
		}
		pid := p.cmd.Process.Pid
		if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			p.stopErr = fmt.Errorf("%w: terminate pid %d: %w", perrors.ErrProcess, pid, err)
			return
		}
		select {
		case <-p.done:
		case <-time.After(p.grace):
			if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
				p.stopErr = fmt.Errorf("%w: kill pid %d: %w", perrors.ErrProcess, pid, err)
				return
			}
			<-p.done
		}
		p.logger.Info().Int("pid", pid).Msg("server process stopped")
	})
	return p.stopErr
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}
