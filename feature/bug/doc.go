// Package bug implements bugs, comments and attachments as change-tracked
// records, and the controller that synchronizes them with the tracker.
//
// # Records
//
//   - Bug: drafts start with the default product, component, platform, op_sys
//     and version. Status can only be set once the bug has an id.
//   - Comment: read-only apart from its tags.
//   - Attachment: created against a persisted bug; data is base64.
//
// # Components
//
//   - Controller: Fetch, Refresh and Persist for bugs; Comments, AddComment
//     and tag edits for comments; Attachments, AddAttachment and
//     PersistAttachment for attachments.
//
// Persisting a draft POSTs every non-empty field; persisting a known bug
// PUTs only the delta and skips the call when nothing changed. A failed
// request leaves the record untouched.
package bug
