// Package search builds bug queries against the tracker's bug endpoint.
//
//	bugs, err := search.New(client, log).
//	    Keywords("intermittent-failure").
//	    Summary("Mn tests").
//	    Timeframe("2014-01-01", "Now").
//	    Search(ctx)
//
// Every search requests DefaultFields. BugNumbers short-circuits the query
// and fetches each bug directly.
package search
