/*
Package supervisor runs the purge reconciler's background re-scan as a
suture-supervised service.

The marker engine's lifecycle alternates between Running and Suspended
(spec.md §5). While Running, a single suture.Supervisor hosts one
reconcilerService that periodically re-diffs the action log against the
library DB to keep the purge index fresh without holding up foreground
CRUD/Shift requests. Suspend stops the supervisor (waiting for the
in-flight reconciliation pass to finish); Resume creates a fresh one and
starts it again, rebuilding the purge index from scratch since the library
DB handle was closed in between.

# Usage

	sup := supervisor.NewReconciler(reconcileFn, interval)
	errCh := sup.ServeBackground(ctx)
	...
	sup.Stop() // on Suspend

# Failure handling

A failing reconciliation pass logs and returns nil (not an error) so suture
does not treat a transient library-DB hiccup as a crash needing backoff;
only a panic during reconciliation triggers suture's restart logic.
*/
package supervisor
