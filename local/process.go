package local

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// stopGrace is how long a sidecar gets to exit after shutdown before it is
// killed.
const stopGrace = 5 * time.Second

// process is one running sidecar. It is not restartable: when it exits the
// Client discards it and spawns a new one.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	conn   *Conn
	logger *slog.Logger

	exited  chan struct{}
	waitErr error
}

// spawn starts the sidecar and blocks until it has loaded the model, ctx is
// done, or cfg.StartupTimeout passes. The process itself outlives ctx.
func spawn(ctx context.Context, cfg Config, logger *slog.Logger) (*process, error) {
	cmd := exec.Command(cfg.PythonPath, cfg.SidecarPath)
	cmd.Dir = cfg.WorkDir
	if len(cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("sidecar stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s %s: %w", cfg.PythonPath, cfg.SidecarPath, err)
	}

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		conn:   NewConn(stdout, stdin),
		logger: logger.With(slog.Int("pid", cmd.Process.Pid)),
		exited: make(chan struct{}),
	}
	go p.forwardStderr(stderr)
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.StartupTimeout)
	defer cancel()

	var res loadResult
	err = call(loadCtx, p.conn, methodLoad, loadParams{
		Runtime: string(cfg.Runtime),
		Model:   cfg.Model,
		Device:  cfg.Device,
		Host:    cfg.Host,
	}, &res)
	if err == nil && !res.Ready {
		err = errors.New("sidecar reported not ready")
		if res.Message != "" {
			err = fmt.Errorf("sidecar reported not ready: %s", res.Message)
		}
	}
	if err != nil {
		p.kill()
		return nil, fmt.Errorf("load %s: %w", cfg.Model, err)
	}

	p.logger.Debug("sidecar ready",
		slog.String("runtime", string(cfg.Runtime)),
		slog.String("model", cfg.Model),
		slog.String("device", cfg.Device))
	return p, nil
}

// alive reports whether the process is still running.
func (p *process) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// stop asks the sidecar to shut down, then closes its stdin and waits. A
// sidecar that is still running after stopGrace is killed.
func (p *process) stop() error {
	if !p.alive() {
		return nil
	}

	shutdown := make(chan error, 1)
	go func() { shutdown <- p.conn.Call(methodShutdown, nil, nil) }()

	var err error
	select {
	case err = <-shutdown:
	case <-p.exited:
	case <-time.After(stopGrace):
		err = errors.New("shutdown timed out")
	}
	_ = p.stdin.Close()

	select {
	case <-p.exited:
	case <-time.After(stopGrace):
		p.kill()
	}
	p.logger.Debug("sidecar stopped")
	return err
}

func (p *process) kill() {
	_ = p.stdin.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.exited
}

// forwardStderr logs sidecar stderr line by line at debug level.
func (p *process) forwardStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	for sc.Scan() {
		p.logger.Debug("sidecar stderr", slog.String("line", sc.Text()))
	}
}
