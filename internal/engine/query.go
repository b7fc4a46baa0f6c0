package engine

import (
	"context"

	"github.com/sceneindex/markerd/internal/cache"
	"github.com/sceneindex/markerd/internal/models"
)

// Libraries implements spec §4.G Libraries.
func (s *Service) Libraries(ctx context.Context) ([]models.Section, error) {
	defer observeOp("get_sections")()
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	out, err := s.lib.Libraries(ctx)
	if err != nil {
		return nil, opError("get_sections", models.WrapError(models.ErrInternal, err, "list sections"))
	}
	return out, nil
}

// Items implements spec §4.G Items: shows or movies directly under a
// section.
func (s *Service) Items(ctx context.Context, sectionID int64, filter models.ItemType) ([]models.Item, error) {
	defer observeOp("get_section")()
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	out, err := s.lib.Items(ctx, sectionID, filter)
	if err != nil {
		return nil, opError("get_section", models.WrapError(models.ErrInternal, err, "list items of section %d", sectionID))
	}
	return out, nil
}

// Seasons implements spec §4.G Seasons.
func (s *Service) Seasons(ctx context.Context, showID int64) ([]models.Item, error) {
	defer observeOp("get_seasons")()
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	out, err := s.lib.ListChildren(ctx, showID, models.ItemSeason)
	if err != nil {
		return nil, opError("get_seasons", models.WrapError(models.ErrInternal, err, "list seasons of show %d", showID))
	}
	return out, nil
}

// Episodes implements spec §4.G Episodes.
func (s *Service) Episodes(ctx context.Context, seasonID int64) ([]models.Item, error) {
	defer observeOp("get_episodes")()
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	out, err := s.lib.ListChildren(ctx, seasonID, models.ItemEpisode)
	if err != nil {
		return nil, opError("get_episodes", models.WrapError(models.ErrInternal, err, "list episodes of season %d", seasonID))
	}
	return out, nil
}

// MarkersForParents implements spec §4.G MarkersForParents (the `query`
// wire operation).
func (s *Service) MarkersForParents(ctx context.Context, parentIDs []int64) (map[int64][]models.Marker, error) {
	defer observeOp("query")()
	if err := s.requireRunning(); err != nil {
		return nil, err
	}
	out, err := s.lib.ListMarkersForParents(ctx, parentIDs)
	if err != nil {
		return nil, opError("query", models.WrapError(models.ErrInternal, err, "list markers for parents"))
	}
	return out, nil
}

// SectionStats implements spec §4.G SectionStats: served from the cache
// when enabled, falling back to a one-shot scan otherwise.
func (s *Service) SectionStats(ctx context.Context, sectionID int64) (models.Breakdown, error) {
	defer observeOp("get_stats")()
	if err := s.requireRunning(); err != nil {
		return models.Breakdown{}, err
	}

	if s.cacheIdx != nil {
		return s.cacheIdx.SectionStats(sectionID), nil
	}
	return s.scanSectionStats(ctx, sectionID)
}

// scanSectionStats recomputes a Breakdown directly from the library DB,
// the degraded path used when extended_marker_stats is disabled (spec §6).
func (s *Service) scanSectionStats(ctx context.Context, sectionID int64) (models.Breakdown, error) {
	leaves, err := s.lib.SectionOverview(ctx, sectionID)
	if err != nil {
		return models.Breakdown{}, opError("get_stats", models.WrapError(models.ErrInternal, err, "section overview %d", sectionID))
	}

	idx := cache.NewIndex()
	cacheLeaves := make([]cache.SectionLeaf, len(leaves))
	for i, l := range leaves {
		cacheLeaves[i] = cache.SectionLeaf{ParentID: l.ParentID, Intros: l.Intros, Credits: l.Credits, Total: l.Total}
	}
	idx.Rebuild(sectionID, cacheLeaves)
	return idx.SectionStats(sectionID), nil
}
