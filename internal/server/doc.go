// Package server implements the MCP (Model Context Protocol) server for scene comparison tools.
//
// This package provides a JSON-RPC 2.0 server that exposes image registration
// and change detection capabilities through the MCP protocol. It's designed to
// work with Claude and other MCP-compatible clients, enabling AI systems to
// compare two captures of the same scene with precision.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Region Operations:
//   - image_crop: Extract rectangular region
//
// Scene Operations:
//   - scene_align: Register a moving image onto a fixed reference
//   - scene_detect_changes: Detect changed regions between registered images
//   - scene_compare: Align and detect changes in one call
//
// # Image Caching
//
// The server maintains an in-memory cache of loaded images. Images are cached
// by path and reused across multiple tool calls, avoiding redundant disk I/O.
// The cache persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// An unalignable image pair is not a tool error: scene_align reports it as
// success=false with an identity transform, so clients can distinguish a
// degraded result from a failed call.
//
// # Usage
//
// The server is typically started by an MCP client:
//
//	srv := server.New(nil)
//	if err := srv.RunStdio(); err != nil {
//	    log.Fatal(err)
//	}
package server
