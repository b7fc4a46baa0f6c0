/*
Package library is the Library DB Adapter (spec §4.A): typed queries and
writes against the foreign, shared database the host media application
owns.

# Attachment strategy

The foreign database is reached by ATTACHing it into a DuckDB catalog via
the sqlite_scanner extension — the same extension mechanism used elsewhere
in this codebase's lineage for one-shot SQLite import, repurposed here as a
live, read/write external catalog rather than a one-shot import source:

	ATTACH '/path/to/library.db' AS lib (TYPE sqlite);

All queries below run against the "lib" catalog. The foreign schema is
owned by another application; the table/column names this package expects
("items", "markers", "sections") are illustrative of the shape the adapter
needs, not a claim about the real application's literal schema — wiring
this adapter to a specific host application means adjusting the SQL in
this package to that application's actual column names, not changing the
typed Go surface other packages call.

# Transactions

Every logical mutation (spec §4.A: "all writes use a single transaction
per logical mutation") goes through a *Tx obtained from BeginTx. Tx groups
one or more InsertMarker/UpdateMarker/UpdateMarkerIndex/DeleteMarker calls;
callers commit or roll back explicitly, matching the locking discipline of
spec §5 where the transaction is nested inside the per-parent lock (or,
for Shift, every affected parent's lock) held by the engine, not by this
package.
*/
package library
