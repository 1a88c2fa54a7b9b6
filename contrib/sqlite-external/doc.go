// Package sqliteexternal provides optional external SQLite drivers.
//
// This package is part of the main github.com/machenxing/bionic module
// and provides a CGO-based SQLite driver for performance-critical use.
//
// # CGO SQLite Driver
//
// To use the CGO driver (github.com/mattn/go-sqlite3):
//
//	import _ "github.com/machenxing/bionic/contrib/sqlite-external"
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite
//
// # Default Pure Go Driver
//
// By default, bionic uses the pure Go modernc.org/sqlite driver, which
// requires no CGO. See github.com/machenxing/bionic/core/sqlite for details.
//
// # When to Use
//
// Use this package when:
//   - Performance matters for a large document library
//   - You already have CGO in your build pipeline
//
// Use the default pure Go driver when:
//   - Portability is important
//   - Cross-compilation is required
//   - You want simpler deployment (single binary)
package sqliteexternal
