// Package server implements the core room-relay and WebSocket server
// functionality for Roomcast.
//
// The implementation is organized into specialized files for the membership
// registry, room directory, event router, message formatting, hub and client
// management, configuration, routing, and HTTP handlers to keep the codebase
// maintainable and testable as the project grows.
package server
