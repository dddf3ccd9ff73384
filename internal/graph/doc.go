// Package graph aggregates the records of many independently-interpreted
// instances into one queryable cross-reference index.
//
// Instances are inserted with AddInstance and linked with ResolveLinks.
// Link targets are looked up by record name across all instances: when more
// than one instance defines the target name, the instance with the lowest
// id (byte order) wins and the ambiguity is recorded as a warning, so
// resolution is deterministic and the choice is visible. Links whose target
// does not exist stay tagged unresolved; a later AddInstance re-runs
// resolution for exactly those links, without rebuilding the graph.
//
// The query surface — exact lookup, prefix and glob search, bounded-depth
// traversal of outbound and inbound links, and link-cycle analysis — takes
// read locks only. Mutation (AddInstance, ResolveLinks) is serialized
// internally, so independent interpretation workers may insert
// concurrently.
package graph
