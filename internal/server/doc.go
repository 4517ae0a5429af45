// Package server exposes the HTTP API: GET /health, POST /chat, and
// POST /identify. Every response carries an X-Request-ID header, and
// errors share one JSON shape with the status derived from the service
// error taxonomy.
package server
