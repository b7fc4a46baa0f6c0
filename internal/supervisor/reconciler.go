package supervisor

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/sceneindex/markerd/internal/logging"
)

// ReconcileFunc runs one purge-reconciliation pass. A failing pass should
// return an error only to feed logging; Serve treats reconciliation
// failures as transient and keeps running rather than propagating them to
// suture as a crash.
type ReconcileFunc func(ctx context.Context) error

// reconcilerService wraps a ReconcileFunc as a suture.Service: it runs the
// function once immediately, then on every tick of interval, until ctx is
// canceled.
type reconcilerService struct {
	reconcile ReconcileFunc
	interval  time.Duration
}

// Serve implements suture.Service.
func (r *reconcilerService) Serve(ctx context.Context) error {
	r.runOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *reconcilerService) runOnce(ctx context.Context) {
	if err := r.reconcile(ctx); err != nil {
		logging.Warn().Err(err).Msg("purge reconciliation pass failed, will retry next tick")
	}
}

// String implements fmt.Stringer for suture's logging.
func (r *reconcilerService) String() string {
	return "purge-reconciler"
}

// Supervisor runs one reconcilerService under a suture.Supervisor, started
// and stopped by Service.Resume/Suspend.
type Supervisor struct {
	sup    *suture.Supervisor
	cancel context.CancelFunc
	done   <-chan error
}

// NewReconciler builds a Supervisor that will run reconcile once at start
// and then every interval.
func NewReconciler(reconcile ReconcileFunc, interval time.Duration) *Supervisor {
	sup := suture.NewSimple("markerd-reconciler")
	sup.Add(&reconcilerService{reconcile: reconcile, interval: interval})
	return &Supervisor{sup: sup}
}

// ServeBackground starts the supervisor in a background goroutine and
// returns a channel that receives an error (or nil) when it stops.
func (s *Supervisor) ServeBackground(ctx context.Context) <-chan error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = s.sup.ServeBackground(ctx)
	return s.done
}

// Stop cancels the supervisor's context and waits for it to exit.
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}
