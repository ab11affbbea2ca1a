// Package record implements the change-tracked record store shared by bugs,
// comments and attachments.
//
// A Record keeps two mappings of field name to value: the live current state
// and the baseline it was last synchronized from. Callers edit the current
// state through validated setters; Diff computes the minimal delta to send
// upstream; Rebaseline makes the current state the new baseline once the
// remote side acknowledged it.
//
// # Schemas
//
// Every record is built from a Schema, a static table describing its fields:
//
//   - String, Bool, Base64 and Time fields are type checked on Set.
//   - Fields with an Enum only accept the listed values.
//   - NeedsID fields are rejected while the record is a draft.
//   - Relational fields are sets of identifiers, diffed by membership.
//   - List fields are list typed but diffed as a whole value.
//
// # Deltas
//
// Relational fields produce a SetChange with the added and removed members;
// no-op fields are left out. Any other field is emitted whole when it differs
// from the baseline or did not exist there.
//
//	rec.Relation("keywords").Add("ateam")
//	rec.Diff() // record.Delta{"keywords": record.SetChange{Add: []any{"ateam"}}}
//
// # Usage
//
//	rec := record.New(schema)
//	if err := rec.Set("summary", "Crash on start"); err != nil {
//	    return err
//	}
//	delta := rec.Diff()
//	// ship delta, then:
//	rec.Rebaseline()
package record
