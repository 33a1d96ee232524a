// Package result implements the Result Accessor (C7): read-only queries
// over a finished clustering run — codelength, per-level module counts, and
// pre-order leaf/physical-node iteration with module paths (spec §4.7).
package result
