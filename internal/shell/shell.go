// Package shell spawns an interactive shell under a pseudo-terminal and
// streams its merged stdout/stderr as a single byte stream. It is the
// agent's only direct dependency on an OS process: callers write bytes in,
// receive bytes and an exit notification out, and never touch exec.Cmd
// directly.
package shell

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// Size is the fixed terminal geometry every shell is spawned with. There is
// no interactive resize, so this is set once at Start and never changed.
var Size = pty.Winsize{Cols: 80, Rows: 30}

// ExitInfo is delivered exactly once to the OnExit handler.
type ExitInfo struct {
	ExitCode int
	Signal   string
}

// Shell is a running (or just-exited) interactive shell under a PTY.
type Shell struct {
	pid int

	mu      sync.Mutex
	ptm     *os.File
	cmd     *exec.Cmd
	onData  func([]byte)
	onExit  func(ExitInfo)
	started bool
}

// command returns the interactive shell binary and args for this OS.
func command() (string, []string) {
	if runtime.GOOS == "windows" {
		return "powershell.exe", []string{"-NoLogo"}
	}
	return "bash", nil
}

// Start spawns a new shell under a PTY rooted at cwd. The returned Shell
// has no data/exit handlers wired yet; call OnData and OnExit before
// assuming output won't be dropped — in practice the registry wires both
// synchronously right after Start returns, before any scheduler activity
// can observe the shell.
func Start(cwd string) (*Shell, error) {
	name, args := command()
	cmd := exec.Command(name, args...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	// pty.Start calls setsid on the child on POSIX, making it its own
	// session and process group leader (PGID == PID). Do not also set
	// Setpgid: calling setpgid() on a session leader returns EPERM on
	// Darwin. The session group already gives Kill() kill(-pgid) semantics.
	ptm, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("pty.Start: %w", err)
	}
	pty.Setsize(ptm, &Size)

	s := &Shell{
		pid: cmd.Process.Pid,
		ptm: ptm,
		cmd: cmd,
	}
	return s, nil
}

// Pid returns the OS process id, used as this shell's ShellId.
func (s *Shell) Pid() int {
	return s.pid
}

// OnData registers the handler invoked with each chunk of merged
// stdout/stderr as it arrives. Must be called before Run.
func (s *Shell) OnData(fn func([]byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onData = fn
}

// OnExit registers the handler invoked exactly once when the shell exits.
// Must be called before Run.
func (s *Shell) OnExit(fn func(ExitInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExit = fn
}

// Run starts the background read loop. It must be called once, after
// OnData/OnExit are wired, and returns immediately; the loop runs in its
// own goroutine until the PTY closes.
func (s *Shell) Run() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	go s.readLoop()
}

func (s *Shell) readLoop() {
	buf := make([]byte, 4096)
	for {
		s.mu.Lock()
		ptm := s.ptm
		s.mu.Unlock()
		if ptm == nil {
			return
		}

		n, err := ptm.Read(buf)
		if n > 0 {
			s.mu.Lock()
			onData := s.onData
			s.mu.Unlock()
			if onData != nil {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				onData(chunk)
			}
		}
		if err != nil {
			break
		}
	}

	waitErr := s.cmd.Wait()

	s.mu.Lock()
	if s.ptm != nil {
		s.ptm.Close()
		s.ptm = nil
	}
	onExit := s.onExit
	s.mu.Unlock()

	info := ExitInfo{}
	if waitErr == nil {
		info.ExitCode = 0
	} else if exitErr, ok := waitErr.(*exec.ExitError); ok {
		info.ExitCode = exitErr.ExitCode()
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			info.Signal = status.Signal().String()
		}
	} else {
		info.ExitCode = -1
	}

	if onExit != nil {
		onExit(info)
	}
}

// Write is a non-blocking append to the shell's input.
func (s *Shell) Write(b []byte) error {
	s.mu.Lock()
	ptm := s.ptm
	s.mu.Unlock()
	if ptm == nil {
		return fmt.Errorf("shell: write to dead pty")
	}
	_, err := ptm.Write(b)
	return err
}

// Kill terminates the shell's whole process group and is idempotent: a
// second call on an already-dead shell is a no-op.
func (s *Shell) Kill() {
	s.mu.Lock()
	pid := s.pid
	s.mu.Unlock()

	if pid > 0 {
		pgid, err := syscall.Getpgid(pid)
		if err == nil && pgid > 0 {
			syscall.Kill(-pgid, syscall.SIGKILL)
		} else {
			syscall.Kill(pid, syscall.SIGKILL)
		}
	}
	// The read loop observes the PTY master returning EOF/EIO once the
	// child dies and closes it there; Kill does not touch s.ptm directly
	// to avoid a double-close race with readLoop's own cleanup.
}
