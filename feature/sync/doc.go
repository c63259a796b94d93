// Package sync exposes the configured sync job over HTTP.
//
// # HTTP Endpoints
//
//   - GET /sync/summary : pending change counts.
//   - GET /sync/changes : pending rows (supports ?partition=inserts|updates|deletes|unchanged).
//   - POST /sync/apply : applies {"operations": [...], "dry_run": bool}; ?dry_run=true also works.
//
// Errors come back as {"error": "..."} with 400 for unsupported operations,
// 409 when the target is busy, 422 for schema mismatches and duplicate keys,
// and 500 for everything else.
package sync
