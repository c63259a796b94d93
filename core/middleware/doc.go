// Package middleware groups the HTTP middleware of the Fiber application.
//
// # Components
//
//   - auth: API key validation protecting every route registered after it.
//   - rayid: tags each request with a RayID, stored in the context and echoed
//     in the response headers for tracing.
package middleware
