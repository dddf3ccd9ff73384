// Package builder materializes records, fields and links from the
// interpreter's database-load commands.
//
// The builder registers handlers for dbLoadRecords, dbLoadTemplate and
// dbLoadDatabase on an interpreter. Each load resolves the referenced
// document through a DocumentParser registered for the file's dialect,
// merges the load command's substitution macros with the document's own
// declarations (the load command wins where both define a name), expands
// every field through the macro scope active at the load line, and tags
// link-typed fields with their parsed target.
//
// Duplicate record names within one instance are collected during the run
// and raised together when the instance is sealed, never silently merged.
//
// A document parse failure is fatal to that single load command only; the
// interpreter logs it and the rest of the script still executes.
package builder
