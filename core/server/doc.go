// Package server holds the HTTP server configuration.
//
// The main application entry point starts the server; this package defines
// the listen port, the API key protecting every route, and the request
// body limit.
package server
