// Package cli implements the command-line interface for pep-parser.
//
// The cli package provides the Cobra root command that selects a parser mode
// (whats-new, latest-versions, download, pep) and an output format
// (console, pretty, file, xlsx). It wires configuration, logging, the cached
// fetch session and the parsers together for a single run.
package cli
