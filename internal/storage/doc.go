// Package storage manages the local directories parser output lands in.
//
// Result files (CSV, XLSX) go to the results directory and downloaded
// archives to the downloads directory. Both accept a leading ~/ and are
// created on first use.
package storage
