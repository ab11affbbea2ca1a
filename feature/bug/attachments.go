package bug

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"bugsync/core/errs"
	"bugsync/core/record"
	"bugsync/core/transport"

	"go.uber.org/zap"
)

// Attachments lists the attachments of a persisted bug.
func (c *Controller) Attachments(ctx context.Context, b *Bug) ([]*Attachment, error) {
	id, ok := b.ID()
	if !ok {
		return nil, errs.New(errs.PreconditionFailed, "list attachments", "a draft bug has no attachments")
	}
	resp, err := c.client.Do(ctx, &transport.Request{Path: bugPath(id) + "/attachment"})
	if err != nil {
		return nil, err
	}

	var out struct {
		Bugs map[string]any `json:"bugs"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, &errs.Error{Kind: errs.RemoteError, Op: "list attachments", Err: err}
	}

	docs := decodeList(out.Bugs[strconv.FormatInt(id, 10)])
	atts := make([]*Attachment, 0, len(docs))
	for _, doc := range docs {
		a, err := DecodeAttachment(doc)
		if err != nil {
			return nil, err
		}
		atts = append(atts, a)
	}
	return atts, nil
}

// AddAttachment uploads the draft att to bug b and assigns it the returned
// id.
func (c *Controller) AddAttachment(ctx context.Context, b *Bug, att *Attachment) error {
	if !c.client.Authenticated() {
		return errs.New(errs.Unauthenticated, "add attachment", "credentials are required to change the tracker")
	}
	bugID, ok := b.ID()
	if !ok {
		return errs.New(errs.PreconditionFailed, "add attachment", "the bug must be persisted first")
	}
	if _, ok := att.ID(); ok {
		return errs.New(errs.PreconditionFailed, "add attachment", "attachment already exists")
	}
	if missing := AttachmentSchema.Missing(att.ToMap()); len(missing) > 0 {
		return errs.New(errs.PreconditionFailed, "add attachment", "missing mandatory fields: %s", strings.Join(missing, ", "))
	}

	payload := record.Pick(att.ToMap(), AttachmentSchema.CreateFields)
	payload["ids"] = []int64{bugID}

	resp, err := c.client.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   bugPath(bugID) + "/attachment",
		Body:   payload,
	})
	if err != nil {
		return err
	}
	id, err := decodeID(resp, "ids")
	if err != nil {
		return &errs.Error{Kind: errs.RemoteError, Op: "add attachment", Err: err}
	}
	if err := att.SetID(id); err != nil {
		return err
	}
	if err := att.Set("bug_id", bugID); err != nil {
		return err
	}
	att.Delete("comment")
	att.Rebaseline()
	c.logger.Info("Attachment added", zap.Int64("bug_id", bugID), zap.Int64("attachment_id", id))
	return nil
}

// PersistAttachment ships the changes of att restricted to the updatable
// fields.
func (c *Controller) PersistAttachment(ctx context.Context, att *Attachment) error {
	if !c.client.Authenticated() {
		return errs.New(errs.Unauthenticated, "persist attachment", "credentials are required to change the tracker")
	}
	id, ok := att.ID()
	if !ok {
		return errs.New(errs.PreconditionFailed, "persist attachment", "attachment has no id")
	}
	delta := att.Diff(AttachmentSchema.UpdateFields...)
	if len(delta) == 0 {
		c.logger.Debug("Attachment unchanged, skipping update", zap.Int64("attachment_id", id))
		return nil
	}

	body := map[string]any{"ids": []int64{id}}
	for field, v := range delta {
		body[field] = v
	}
	_, err := c.client.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "bug/attachment/" + strconv.FormatInt(id, 10),
		Body:   body,
	})
	if err != nil {
		return err
	}
	att.Delete("comment")
	att.Rebaseline()
	c.logger.Info("Attachment updated", zap.Int64("attachment_id", id), zap.Strings("fields", delta.Fields()))
	return nil
}
