//go:build unix

package processmgr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Handle is a started, supervised external process.
type Handle interface {
	PID() int
	// Done is closed once the process is reaped and its output fully drained.
	Done() <-chan struct{}
	// ExitCode is valid after Done; -1 when killed by a signal.
	ExitCode() int
	// Output returns up to n captured stdout/stderr lines, oldest first.
	Output(n int) []string
	// Marked returns the lines the LogManager's mark filter accepted over
	// the whole run, even those no longer in Output.
	Marked() []string
	// Interrupt sends SIGINT to the process group and escalates to SIGKILL
	// after the grace period. Idempotent; returns immediately.
	Interrupt()
}

// process is a one-shot supervised command:
//
//	newProcess → start → (Interrupt) → <-Done()
//
// stdout and stderr are drained into one ring buffer; stdin is /dev/null.
type process struct {
	log    *zap.Logger
	logBuf *logBuffer
	grace  time.Duration

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr io.ReadCloser

	done          chan struct{}
	interruptOnce sync.Once
	exitCode      atomic.Int64
	pid           int
}

func newProcess(log *zap.Logger, logBuf *logBuffer, grace time.Duration, path string, argv []string) (*process, error) {
	cmd := exec.Command(path, argv...)
	stdout, stderr, err := pipes(cmd)
	if err != nil {
		return nil, err
	}
	cmd.SysProcAttr = sysProcAttr()

	p := &process{
		log:    log,
		logBuf: logBuf,
		grace:  grace,
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		done:   make(chan struct{}),
	}
	p.exitCode.Store(-1)
	return p, nil
}

// start launches the command; on success the supervisor owns it until Done.
func (p *process) start() error {
	if err := p.cmd.Start(); err != nil {
		return err
	}
	p.pid = p.cmd.Process.Pid
	p.log = p.log.With(zap.Int("cmd_pid", p.pid))
	p.log.Info("process started")

	go p.supervise()
	return nil
}

// supervise drains both pipes to EOF, then reaps the child exactly once.
func (p *process) supervise() {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); p.drain("stdout", p.stdout) }()
	go func() { defer wg.Done(); p.drain("stderr", p.stderr) }()
	wg.Wait()

	err := p.cmd.Wait()
	var eerr *exec.ExitError
	switch {
	case err == nil:
		p.exitCode.Store(0)
		p.log.Info("process exited cleanly")
	case errors.As(err, &eerr):
		status := eerr.ProcessState.Sys().(syscall.WaitStatus)
		p.exitCode.Store(int64(eerr.ExitCode()))
		p.log.Info("process exited with error status",
			zap.Int("exit_code", status.ExitStatus()),
			zap.Bool("signaled", status.Signaled()),
			zap.String("signal", status.Signal().String()))
	default:
		p.log.Error("failed to wait for process", zap.Error(err))
	}

	close(p.done)
}

// drain copies one pipe into the ring buffer. ffmpeg rewrites its progress
// line with '\r', so both '\r' and '\n' end a line.
func (p *process) drain(name string, r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(scanCRLF)

	for sc.Scan() {
		if line := sc.Text(); line != "" {
			p.logBuf.Append(line)
		}
	}
	if err := sc.Err(); err != nil {
		p.log.Error("scanner failure", zap.String("pipe", name), zap.Error(err))
		// keep the pipe flowing so the child never blocks on a full buffer
		_, _ = io.Copy(io.Discard, r)
	}
}

func scanCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (p *process) PID() int              { return p.pid }
func (p *process) Done() <-chan struct{} { return p.done }
func (p *process) ExitCode() int         { return int(p.exitCode.Load()) }
func (p *process) Output(n int) []string { return p.logBuf.Tail(n) }
func (p *process) Marked() []string      { return p.logBuf.Marked() }

// Interrupt delivers SIGINT (ffmpeg finalizes the container on it) to the
// process group, then SIGKILL if the group outlives the grace period.
func (p *process) Interrupt() {
	p.interruptOnce.Do(func() {
		select {
		case <-p.done:
			p.log.Debug("Interrupt() called after Done(); ignored")
			return
		default:
		}

		if err := syscall.Kill(-p.pid, syscall.SIGINT); err != nil {
			p.log.Warn("SIGINT failed", zap.Error(err))
		} else {
			p.log.Info("SIGINT sent")
		}

		go func() {
			timer := time.NewTimer(p.grace)
			defer timer.Stop()

			select {
			case <-p.done:
				p.log.Debug("process exited after SIGINT")
			case <-timer.C:
				p.log.Warn("grace timeout expired; sending SIGKILL")
				if err := syscall.Kill(-p.pid, syscall.SIGKILL); err != nil {
					p.log.Error("SIGKILL failed", zap.Error(err))
				}
			}
		}()
	})
}

// pipes prepares stdout and stderr. exec.Cmd only owns the pipe ends after a
// successful Start, so a partial failure closes what was already created.
func pipes(cmd *exec.Cmd) (io.ReadCloser, io.ReadCloser, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe creation failure: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		return nil, nil, fmt.Errorf("stderr pipe creation failure: %w", err)
	}
	return stdout, stderr, nil
}
