package host

import (
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/xolox/negotiator/internal/errx"
)

// terminateGrace is how long a worker gets to exit after SIGTERM before it
// is killed.
const terminateGrace = 5 * time.Second

// EnvWorkerID carries the supervisor-assigned worker id into the spawned
// process so log lines correlate across both sides.
const EnvWorkerID = "NEGOTIATOR_WORKER_ID"

// Worker is one host-side subprocess owning the serve loop for one guest.
// Workers are real OS processes so a wedged script or hung read cannot
// stall the supervisor or the other guests.
type Worker struct {
	Guest string
	ID    string

	cmd  *exec.Cmd
	done chan struct{}
}

// Alive reports whether the worker process is still running.
func (w *Worker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Terminate asks the worker to exit and waits for it, escalating to SIGKILL
// after the grace period.
func (w *Worker) Terminate() {
	if w.cmd == nil || w.cmd.Process == nil {
		return
	}
	_ = w.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-w.done:
	case <-time.After(terminateGrace):
		slog.Warn("worker ignored SIGTERM, killing it", "guest", w.Guest, "worker", w.ID)
		_ = w.cmd.Process.Kill()
		<-w.done
	}
}

// Launcher spawns workers. The supervisor depends on this interface so
// reconciliation can be exercised without real processes.
type Launcher interface {
	Launch(guest string) (*Worker, error)
}

// ExecLauncher re-executes the current binary in its hidden worker mode.
// ExtraArgs carries flags the worker needs to inherit (command directories,
// the virsh binary).
type ExecLauncher struct {
	ExtraArgs []string
}

func (l *ExecLauncher) Launch(guest string) (*Worker, error) {
	self, err := os.Executable()
	if err != nil {
		return nil, errx.Wrap(ErrWorkerSpawn, err)
	}
	id := uuid.NewString()[:8]
	args := append([]string{"worker", guest}, l.ExtraArgs...)
	cmd := exec.Command(self, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), EnvWorkerID+"="+id)
	if err := cmd.Start(); err != nil {
		return nil, errx.Wrap(ErrWorkerSpawn, err)
	}

	worker := &Worker{Guest: guest, ID: id, cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err != nil {
			slog.Debug("worker exited with error", "guest", guest, "worker", id, "error", err)
		}
		close(worker.done)
	}()
	return worker, nil
}
