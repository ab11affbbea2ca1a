// Package fakezilla is an in-process stand-in for the tracker REST API.
//
// Bugs, comments and attachments are kept as JSON documents in a gorm
// database (sqlite by default, mysql when configured). The fiber app serves
// the subset of the API the bug controller and search use, under /rest,
// with the same error body: {"error": true, "code": N, "message": "..."}.
//
// Transport plugs the app into an http.Client so tests can drive the real
// client end to end without a listener.
package fakezilla
