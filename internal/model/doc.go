// Package model provides the foundational data types for iocscope.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal. This ensures the data model
// remains the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Every fact carries a SourceLocation (file, line, macro snapshot)
//   - SourceLocation is immutable once created; constructors copy their inputs
//   - Record names are NFC-normalized before use as graph keys
//   - Instances are never mutated after interpretation completes
package model
