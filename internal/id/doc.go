// Package id generates identifiers for reload generations and request log
// entries.
//
// Both use ULIDs: 26 Crockford base32 characters encoding a millisecond
// timestamp followed by 80 random bits. ULIDs sort lexicographically in
// creation order, so the status endpoint and request log can be read
// chronologically without a separate sequence number.
package id
