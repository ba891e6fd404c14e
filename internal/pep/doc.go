// Package pep tallies PEPs by status.
//
// The numerical index on peps.python.org lists every PEP with a short status
// code; each PEP's own page shows the authoritative status name. The Engine
// walks the index in order, checks each code against the Taxonomy, resolves
// the detail-page status, and counts only statuses the Taxonomy knows. A
// status that disagrees with its index code is logged but still counted.
// Rows that cannot be read or resolved are logged and skipped; they never
// abort the run.
package pep
