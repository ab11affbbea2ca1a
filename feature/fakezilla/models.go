package fakezilla

import "time"

// Document is the part shared by every stored record: an id and the record
// itself as a JSON object.
type Document struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Doc       string    `gorm:"column:doc;type:longtext;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (d *Document) document() *Document { return d }

// BugRow stores a bug.
type BugRow struct {
	Document
}

func (BugRow) TableName() string { return "bugs" }

// CommentRow stores a comment of bug BugID.
type CommentRow struct {
	Document
	BugID int64 `gorm:"column:bug_id;type:bigint;index;not null"`
}

func (CommentRow) TableName() string { return "comments" }

// AttachmentRow stores an attachment of bug BugID.
type AttachmentRow struct {
	Document
	BugID int64 `gorm:"column:bug_id;type:bigint;index;not null"`
}

func (AttachmentRow) TableName() string { return "attachments" }

// Models lists every table of the store.
func Models() []any {
	return []any{&BugRow{}, &CommentRow{}, &AttachmentRow{}}
}
