package bug

import (
	"maps"

	"bugsync/core/record"
)

// Bug is a change-tracked bug record.
type Bug struct {
	*record.Record
}

// New returns a draft bug seeded with the default product, component,
// platform, op_sys and version.
func New() *Bug {
	return &Bug{Record: record.New(BugSchema)}
}

// Decode builds a persisted bug from a decoded server object.
func Decode(fields map[string]any) (*Bug, error) {
	rec, err := record.Hydrate(BugSchema, foldCC(fields))
	if err != nil {
		return nil, err
	}
	return &Bug{Record: rec}, nil
}

// Summary returns the bug title.
func (b *Bug) Summary() string { return b.String("summary") }

// Status returns the bug status, empty for drafts.
func (b *Bug) Status() string { return b.String("status") }

// Resolution returns the resolution, empty while the bug is open.
func (b *Bug) Resolution() string { return b.String("resolution") }

// Comment is a change-tracked bug comment.
type Comment struct {
	*record.Record
}

// DecodeComment builds a comment from a decoded server object.
func DecodeComment(fields map[string]any) (*Comment, error) {
	rec, err := record.Hydrate(CommentSchema, fields)
	if err != nil {
		return nil, err
	}
	return &Comment{Record: rec}, nil
}

// Text returns the comment body.
func (c *Comment) Text() string { return c.String("text") }

// Attachment is a change-tracked bug attachment.
type Attachment struct {
	*record.Record
}

// NewAttachment returns a draft attachment.
func NewAttachment() *Attachment {
	return &Attachment{Record: record.New(AttachmentSchema)}
}

// DecodeAttachment builds an attachment from a decoded server object.
func DecodeAttachment(fields map[string]any) (*Attachment, error) {
	rec, err := record.Hydrate(AttachmentSchema, fields)
	if err != nil {
		return nil, err
	}
	return &Attachment{Record: rec}, nil
}

// BugID returns the id of the bug the attachment belongs to.
func (a *Attachment) BugID() (int64, bool) {
	return a.Int("bug_id")
}

// foldCC replaces cc_detail, a list of user objects, with the cc list of
// their emails.
func foldCC(fields map[string]any) map[string]any {
	detail, ok := fields["cc_detail"]
	if !ok {
		return fields
	}
	out := maps.Clone(fields)
	delete(out, "cc_detail")

	users, _ := detail.([]any)
	cc := make([]any, 0, len(users))
	for _, u := range users {
		user, ok := u.(map[string]any)
		if !ok {
			continue
		}
		if email, ok := user["email"].(string); ok && email != "" {
			cc = append(cc, email)
		} else if name, ok := user["name"].(string); ok && name != "" {
			cc = append(cc, name)
		}
	}
	out["cc"] = cc
	return out
}
