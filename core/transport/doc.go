// Package transport is the HTTP collaborator of the synchronization
// controller. It turns a Request (path, method, query, JSON body) into a
// Response and surfaces every non-2xx answer as an *errs.Error carrying the
// tracker's code and message.
//
// # Authentication
//
// Three credential flavours are supported, selected by Config.Mode:
//
//   - api_key: sent as X-Bugzilla-API-Key, validated through valid_login.
//   - password: exchanged at login for a token sent as X-Bugzilla-Token.
//   - cookie: user id and login cookie form the token directly; the user
//     name is looked up through user/<id>.
//
// # Observability
//
// Every exchange is logged at debug level through zap with a per-request
// X-Request-ID, and counted by the optional prometheus Metrics.
//
// # Usage
//
//	client, err := transport.Connect(ctx, cfg.Remote, transport.WithLogger(log))
//	resp, err := client.Do(ctx, &transport.Request{Method: http.MethodGet, Path: "bug/1"})
package transport
