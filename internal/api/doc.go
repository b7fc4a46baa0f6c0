/*
Package api is the Request Dispatcher (spec component H): a thin HTTP
front door over internal/engine.

Each of the 17 wire operations gets its own chi route, its own typed
parameter object with a validated constructor, and its own Handler method.
The dispatcher never touches the library DB, the action log, or the cache
directly — every decision is made by the engine and returned unchanged,
translated only from a models.ServiceError's Kind to an HTTP status and a
JSON envelope.

Unknown routes fall through to NotFound, which reports NotFound per spec
§4.H ("Unknown operation name → NotFound"). Parameter parse failures are
reported as BadRequest before the engine is ever called.
*/
package api
