// Package utils provides common value conversion helpers for bugsync.
// It normalizes decoded JSON and caller-supplied Go values onto the types the
// record store keeps, so set membership and equality are well defined.
//
// It also builds the timeout-bounded HTTP transport shared by the tracker
// client and the object storage client.
package utils
