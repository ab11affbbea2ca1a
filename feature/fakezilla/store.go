package fakezilla

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bugsync/core/utils"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a bug, comment or attachment does not exist.
var ErrNotFound = errors.New("not found")

// Store persists tracker records as JSON documents through gorm.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the tables and returns the store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

type row[T any] interface {
	*T
	document() *Document
}

func decodeDoc(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	if doc == nil {
		return map[string]any{}, nil
	}
	return utils.Normalize(doc).(map[string]any), nil
}

func encodeDoc(doc map[string]any) (string, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func get[T any, P row[T]](tx *gorm.DB, id int64) (map[string]any, error) {
	p := P(new(T))
	if err := tx.First(p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeDoc(p.document().Doc)
}

func list[T any, P row[T]](tx *gorm.DB) ([]map[string]any, error) {
	var rows []T
	if err := tx.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]map[string]any, 0, len(rows))
	for i := range rows {
		doc, err := decodeDoc(P(&rows[i]).document().Doc)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// insert creates p, then stores doc with the assigned id under "id".
func insert[T any, P row[T]](tx *gorm.DB, p P, doc map[string]any) (int64, error) {
	p.document().Doc = "{}"
	if err := tx.Create(p).Error; err != nil {
		return 0, err
	}
	id := p.document().ID
	doc["id"] = id
	enc, err := encodeDoc(doc)
	if err != nil {
		return 0, err
	}
	if err := tx.Model(p).Update("doc", enc).Error; err != nil {
		return 0, err
	}
	return id, nil
}

func modify[T any, P row[T]](tx *gorm.DB, id int64, fn func(doc map[string]any) error) (map[string]any, error) {
	p := P(new(T))
	if err := tx.First(p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc, err := decodeDoc(p.document().Doc)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	enc, err := encodeDoc(doc)
	if err != nil {
		return nil, err
	}
	if err := tx.Model(p).Update("doc", enc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateBug stores doc as a new bug and returns its id.
func (s *Store) CreateBug(ctx context.Context, doc map[string]any) (int64, error) {
	var id int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		id, err = insert(tx, &BugRow{}, doc)
		return err
	})
	return id, err
}

// Bug returns bug id.
func (s *Store) Bug(ctx context.Context, id int64) (map[string]any, error) {
	return get[BugRow](s.db.WithContext(ctx), id)
}

// Bugs returns every bug in id order.
func (s *Store) Bugs(ctx context.Context) ([]map[string]any, error) {
	return list[BugRow](s.db.WithContext(ctx))
}

// UpdateBug applies fn to bug id and stores the result.
func (s *Store) UpdateBug(ctx context.Context, id int64, fn func(doc map[string]any) error) (map[string]any, error) {
	var doc map[string]any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = modify[BugRow](tx, id, fn)
		return err
	})
	return doc, err
}

// AddComment stores doc as the next comment of bug bugID.
func (s *Store) AddComment(ctx context.Context, bugID int64, doc map[string]any) (int64, error) {
	var id int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get[BugRow](tx, bugID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&CommentRow{}).Where("bug_id = ?", bugID).Count(&count).Error; err != nil {
			return err
		}
		doc["bug_id"] = bugID
		doc["count"] = count
		var err error
		id, err = insert(tx, &CommentRow{BugID: bugID}, doc)
		return err
	})
	return id, err
}

// Comment returns comment id.
func (s *Store) Comment(ctx context.Context, id int64) (map[string]any, error) {
	return get[CommentRow](s.db.WithContext(ctx), id)
}

// Comments returns the comments of bug bugID, oldest first.
func (s *Store) Comments(ctx context.Context, bugID int64) ([]map[string]any, error) {
	return list[CommentRow](s.db.WithContext(ctx).Where("bug_id = ?", bugID))
}

// UpdateComment applies fn to comment id and stores the result.
func (s *Store) UpdateComment(ctx context.Context, id int64, fn func(doc map[string]any) error) (map[string]any, error) {
	var doc map[string]any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = modify[CommentRow](tx, id, fn)
		return err
	})
	return doc, err
}

// AddAttachment stores doc as a new attachment of bug bugID.
func (s *Store) AddAttachment(ctx context.Context, bugID int64, doc map[string]any) (int64, error) {
	var id int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := get[BugRow](tx, bugID); err != nil {
			return err
		}
		doc["bug_id"] = bugID
		var err error
		id, err = insert(tx, &AttachmentRow{BugID: bugID}, doc)
		return err
	})
	return id, err
}

// Attachment returns attachment id.
func (s *Store) Attachment(ctx context.Context, id int64) (map[string]any, error) {
	return get[AttachmentRow](s.db.WithContext(ctx), id)
}

// Attachments returns the attachments of bug bugID.
func (s *Store) Attachments(ctx context.Context, bugID int64) ([]map[string]any, error) {
	return list[AttachmentRow](s.db.WithContext(ctx).Where("bug_id = ?", bugID))
}

// UpdateAttachment applies fn to attachment id and stores the result.
func (s *Store) UpdateAttachment(ctx context.Context, id int64, fn func(doc map[string]any) error) (map[string]any, error) {
	var doc map[string]any
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		doc, err = modify[AttachmentRow](tx, id, fn)
		return err
	})
	return doc, err
}
