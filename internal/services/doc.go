// Package services defines shared utilities consumed by the HTTP handlers
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request correlation identifiers and endpoint
//     names for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent HTTP status codes.
//
// Use these helpers when wiring new handler logic so operational behaviour
// (error handling, observability) stays uniform across the service.
package services
