package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sceneindex/markerd/internal/actionlog"
	"github.com/sceneindex/markerd/internal/cache"
	"github.com/sceneindex/markerd/internal/config"
	"github.com/sceneindex/markerd/internal/library"
	"github.com/sceneindex/markerd/internal/logging"
	"github.com/sceneindex/markerd/internal/metrics"
	"github.com/sceneindex/markerd/internal/models"
	"github.com/sceneindex/markerd/internal/supervisor"
)

// reconcileInterval is how often the supervised reconciler service re-diffs
// the action log against the library DB while Running.
const reconcileInterval = 5 * time.Minute

// Service is the single injected value the Request Dispatcher calls into
// (spec §9: "process-wide module state ... represented as fields of a
// single Service value constructed once at startup").
type Service struct {
	cfg *config.Config

	// stateMu guards state and serializes Suspend/Resume against each
	// other and against the handles they open/close.
	stateMu sync.RWMutex
	state   State

	lib       *library.DB
	actionLog *actionlog.Store
	cacheIdx  *cache.Index
	purge     *purgeIndex
	locks     *lockManager
	recon     *supervisor.Supervisor
}

// New constructs a Service in FirstBoot, then transitions it to Running by
// opening the library DB, optionally opening the action log, rebuilding the
// cache, and starting the purge reconciler.
func New(cfg *config.Config) (*Service, error) {
	s := &Service{
		cfg:   cfg,
		state: StateFirstBoot,
		locks: newLockManager(),
		purge: newPurgeIndex(),
	}

	if err := s.open(); err != nil {
		return nil, err
	}

	s.stateMu.Lock()
	s.state = StateRunning
	s.stateMu.Unlock()

	logging.Info().Msg("marker engine running")
	return s, nil
}

// open acquires the library DB handle, the action log (if enabled), the
// cache (if enabled), and starts the reconciler supervisor. It is shared by
// New and Resume.
func (s *Service) open() error {
	lib, err := library.Open(s.cfg)
	if err != nil {
		return fmt.Errorf("open library database: %w", err)
	}
	s.lib = lib

	// Suspend leaves the action log open, so Resume reuses that handle.
	if s.cfg.BackupActions && s.actionLog == nil {
		al, err := actionlog.Open(s.cfg.MetadataPath)
		if err != nil {
			_ = s.lib.Close()
			return fmt.Errorf("open action log: %w", err)
		}
		s.actionLog = al
	}

	if s.cfg.ExtendedMarkerStats {
		s.cacheIdx = cache.NewIndex()
		if err := s.rebuildCache(context.Background()); err != nil {
			return fmt.Errorf("rebuild marker cache: %w", err)
		}
	}

	if s.cfg.BackupActions {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.reconcile(ctx)
		cancel()
		if err != nil {
			logging.Warn().Err(err).Msg("initial purge reconciliation failed, will retry on next tick")
		}

		s.recon = supervisor.NewReconciler(s.reconcile, reconcileInterval)
		s.recon.ServeBackground(context.Background())
	}

	return nil
}

// rebuildCache repopulates the cache wholesale from a single pass per
// section over the library DB (spec §4.C Rebuild).
func (s *Service) rebuildCache(ctx context.Context) error {
	start := time.Now()
	defer func() { metrics.CacheRebuildDuration.Observe(time.Since(start).Seconds()) }()

	sections, err := s.lib.Libraries(ctx)
	if err != nil {
		return fmt.Errorf("list sections: %w", err)
	}

	for _, section := range sections {
		leaves, err := s.lib.SectionOverview(ctx, section.ID)
		if err != nil {
			return fmt.Errorf("section overview %d: %w", section.ID, err)
		}
		cacheLeaves := make([]cache.SectionLeaf, len(leaves))
		for i, l := range leaves {
			cacheLeaves[i] = cache.SectionLeaf{ParentID: l.ParentID, Intros: l.Intros, Credits: l.Credits, Total: l.Total}
		}
		s.cacheIdx.Rebuild(section.ID, cacheLeaves)
	}
	return nil
}

// requireRunning returns ErrUnavailable unless the service is Running,
// satisfying the Suspend/Resume contract that all mutating and querying
// operations fail while suspended or shutting down.
func (s *Service) requireRunning() error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.state != StateRunning {
		return models.NewError(models.ErrUnavailable, "service is %s", s.state)
	}
	return nil
}

// Suspend closes the library DB handle (and stops the reconciler) while
// leaving the action log and cache intact, per spec §5: "suspend waits for
// in-flight transactions to finish, then closes handles". Because mutating
// operations hold a per-parent lock across their whole transaction,
// acquiring every outstanding lock before closing would deadlock against a
// caller blocked on requireRunning; instead Suspend flips state first so no
// new operation starts, then closes the handle, which is safe once
// database/sql has returned from any in-flight call using it.
func (s *Service) Suspend() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state != StateRunning {
		return models.NewError(models.ErrUnavailable, "service is %s, cannot suspend", s.state)
	}

	if s.recon != nil {
		s.recon.Stop()
		s.recon = nil
	}
	if err := s.lib.Close(); err != nil {
		logging.Warn().Err(err).Msg("error closing library database on suspend")
	}
	s.lib = nil
	s.state = StateSuspended
	logging.Info().Msg("marker engine suspended")
	return nil
}

// Resume reopens the library DB handle, rebuilds the cache from it (when
// extended_marker_stats is enabled), and restarts the reconciler.
func (s *Service) Resume() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.state != StateSuspended {
		return models.NewError(models.ErrUnavailable, "service is %s, cannot resume", s.state)
	}

	if err := s.open(); err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	s.state = StateRunning
	logging.Info().Msg("marker engine resumed")
	return nil
}

// Shutdown stops the reconciler and closes every handle, entering
// ShuttingDown and never leaving it.
func (s *Service) Shutdown() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.state = StateShuttingDown
	if s.recon != nil {
		s.recon.Stop()
		s.recon = nil
	}
	var err error
	if s.lib != nil {
		err = s.lib.Close()
		s.lib = nil
	}
	if s.actionLog != nil {
		if cerr := s.actionLog.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.actionLog = nil
	}
	return err
}
