// Package main hosts the pokechatd CLI entrypoint and command graph.
//
// The Cobra-based command tree covers running the HTTP service, hashing
// images from the shell, offline identification against the reference table,
// and configuration scaffolding. It centralizes configuration resolution and
// logger setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
