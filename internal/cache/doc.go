// Package cache provides the TTL response cache used for PokeAPI payloads,
// upstream health probes, and rendered chat answers. Backends: in-process
// memory (default) and Redis for multi-replica deployments.
package cache
