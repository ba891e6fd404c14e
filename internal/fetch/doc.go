// Package fetch retrieves pages for the parsers.
//
// A Session issues HTTP GETs with a fixed User-Agent, optionally paced by a
// token-bucket limiter, and keeps successful bodies in a sqlite-backed Cache
// so repeated runs do not hit the documentation sites again within the TTL.
// All retrieval failures are reported as *FetchError.
package fetch
