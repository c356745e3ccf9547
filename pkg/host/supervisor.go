package host

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/xolox/negotiator/pkg/hypervisor"
	"github.com/xolox/negotiator/pkg/protocol"
)

// DefaultPollInterval is how often the supervisor reconciles its workers
// against the set of running guests.
const DefaultPollInterval = 10 * time.Second

// Supervisor maintains one worker per running guest that exposes the
// guest-to-host channel. Guests that don't expose it are quarantined so we
// stop shelling out to the hypervisor for them on every tick. All state is
// process-scoped and rebuilt from scratch after a restart.
type Supervisor struct {
	ctrl     hypervisor.Controller
	launcher Launcher
	interval time.Duration

	workers map[string]*Worker
	ignored map[string]struct{}
}

func NewSupervisor(ctrl hypervisor.Controller, launcher Launcher, interval time.Duration) *Supervisor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Supervisor{
		ctrl:     ctrl,
		launcher: launcher,
		interval: interval,
		workers:  make(map[string]*Worker),
		ignored:  make(map[string]struct{}),
	}
}

// Run reconciles every interval until ctx is cancelled, then terminates all
// workers before returning. Discovery failures abort the tick and are
// retried on the next one.
func (s *Supervisor) Run(ctx context.Context) error {
	slog.Info("supervisor started", "interval", s.interval)
	for {
		if err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			// One line, no stack: the listing command failing is routine
			// while libvirt restarts.
			slog.Error("reconciliation tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
		case <-time.After(s.interval):
			continue
		}
		break
	}
	s.shutdown()
	return ctx.Err()
}

// Tick performs one reconciliation pass: drop dead workers and workers for
// vanished guests, then spawn workers for running guests that expose the
// guest-to-host channel and aren't quarantined.
func (s *Supervisor) Tick(ctx context.Context) error {
	names, err := s.ctrl.RunningGuests(ctx)
	if err != nil {
		// Already classified as ErrGuestDiscovery by the controller.
		return err
	}
	running := make(map[string]struct{}, len(names))
	for _, name := range names {
		running[name] = struct{}{}
	}

	s.cleanup(running)
	s.spawn(ctx, running)
	return nil
}

func (s *Supervisor) cleanup(running map[string]struct{}) {
	for name, worker := range s.workers {
		if !worker.Alive() {
			slog.Info("worker died, removing it", "guest", name, "worker", worker.ID)
			delete(s.workers, name)
			continue
		}
		if _, ok := running[name]; !ok {
			slog.Info("guest stopped, terminating its worker", "guest", name, "worker", worker.ID)
			worker.Terminate()
			delete(s.workers, name)
		}
	}
}

func (s *Supervisor) spawn(ctx context.Context, running map[string]struct{}) {
	names := make([]string, 0, len(running))
	for name := range running {
		if _, skip := s.ignored[name]; !skip {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if worker, ok := s.workers[name]; ok && worker.Alive() {
			continue
		}
		paths, err := s.ctrl.ChannelPaths(ctx, name)
		if err != nil {
			slog.Warn("failed to inspect guest channels", "guest", name, "error", err)
			continue
		}
		if _, ok := paths[protocol.GuestToHostChannel]; !ok {
			slog.Info("guest doesn't support the negotiator protocol, ignoring it", "guest", name)
			s.ignored[name] = struct{}{}
			continue
		}
		worker, err := s.launcher.Launch(name)
		if err != nil {
			slog.Error("failed to launch worker", "guest", name, "error", err)
			continue
		}
		slog.Info("launched worker", "guest", name, "worker", worker.ID)
		s.workers[name] = worker
	}
}

func (s *Supervisor) shutdown() {
	for name, worker := range s.workers {
		slog.Info("terminating worker", "guest", name, "worker", worker.ID)
		worker.Terminate()
		delete(s.workers, name)
	}
	slog.Info("supervisor stopped")
}
