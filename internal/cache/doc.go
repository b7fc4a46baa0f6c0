/*
Package cache provides the in-memory marker breakdown index.

Unlike a general-purpose TTL/LRU cache, this index never evicts: it holds
exactly one packed bucket per parent (episode or movie) for as long as the
process lives, and it must always equal what a full rebuild from the
library DB would produce (property P6). Index.Rebuild replaces a section's
entries wholesale; it does not compare them with the previous contents.

# Packed bucket

Each parent's intro/credits counts are packed into one machine word:

	bucket = credits<<16 | intros

PackedBucket exposes typed accessors so callers never touch the raw int.
Commercial markers are tracked per-item for totals but are not part of the
packed word, per the spec's aggregate-statistics treatment of them.

# Usage

	idx := cache.NewIndex()
	idx.Rebuild(sectionID, overview) // from library.SectionOverview
	idx.Delta(sectionID, parentID, oldIntros, oldCredits, newIntros, newCredits)
	stats := idx.SectionStats(sectionID)

# Thread safety

Index is guarded by a single sync.RWMutex per the spec's concurrency model:
readers are aggregate queries, writers are post-commit delta calls that run
after the underlying DB transaction has already committed.
*/
package cache
