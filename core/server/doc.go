// Package server holds the HTTP server configuration of the fake tracker.
//
// The fake tracker knows a single account: Username/Password for the login
// exchange, or ApiKey sent in X-Bugzilla-API-Key.
//
// # Usage
//
//	app.Listen(cfg.Server.Addr())
package server
