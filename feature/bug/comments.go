package bug

import (
	"context"
	"net/http"
	"strconv"

	"bugsync/core/errs"
	"bugsync/core/record"
	"bugsync/core/transport"

	"go.uber.org/zap"
)

// Comments lists the comments of a persisted bug, oldest first.
func (c *Controller) Comments(ctx context.Context, b *Bug) ([]*Comment, error) {
	id, ok := b.ID()
	if !ok {
		return nil, errs.New(errs.PreconditionFailed, "list comments", "a draft bug has no comments")
	}
	resp, err := c.client.Do(ctx, &transport.Request{Path: bugPath(id) + "/comment"})
	if err != nil {
		return nil, err
	}

	var out struct {
		Bugs map[string]struct {
			Comments []map[string]any `json:"comments"`
		} `json:"bugs"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, &errs.Error{Kind: errs.RemoteError, Op: "list comments", Err: err}
	}

	docs := out.Bugs[strconv.FormatInt(id, 10)].Comments
	comments := make([]*Comment, 0, len(docs))
	for _, doc := range docs {
		cm, err := DecodeComment(doc)
		if err != nil {
			return nil, err
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

// AddComment stages text as the opening comment of a draft bug, or posts it
// immediately on a persisted one.
func (c *Controller) AddComment(ctx context.Context, b *Bug, text string) error {
	id, ok := b.ID()
	if !ok {
		return b.Set("comment", text)
	}
	if !c.client.Authenticated() {
		return errs.New(errs.Unauthenticated, "add comment", "credentials are required to change the tracker")
	}
	resp, err := c.client.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   bugPath(id) + "/comment",
		Body:   map[string]any{"comment": text},
	})
	if err != nil {
		return err
	}
	commentID, err := decodeID(resp, "id")
	if err != nil {
		return &errs.Error{Kind: errs.RemoteError, Op: "add comment", Err: err}
	}
	c.logger.Info("Comment added", zap.Int64("bug_id", id), zap.Int64("comment_id", commentID))
	return nil
}

// PersistTags ships the tag changes of cm.
func (c *Controller) PersistTags(ctx context.Context, cm *Comment) error {
	if !c.client.Authenticated() {
		return errs.New(errs.Unauthenticated, "persist tags", "credentials are required to change the tracker")
	}
	id, ok := cm.ID()
	if !ok {
		return errs.New(errs.PreconditionFailed, "persist tags", "comment has no id")
	}
	change, ok := cm.Diff("tags")["tags"].(record.SetChange)
	if !ok {
		return nil
	}

	_, err := c.client.Do(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "bug/comment/" + strconv.FormatInt(id, 10) + "/tags",
		Body:   change,
	})
	if err != nil {
		return err
	}
	cm.Rebaseline()
	c.logger.Info("Comment tags updated", zap.Int64("comment_id", id), zap.Int("added", len(change.Add)), zap.Int("removed", len(change.Remove)))
	return nil
}

// AddTags tags cm and persists the change.
func (c *Controller) AddTags(ctx context.Context, cm *Comment, tags ...string) error {
	if err := cm.Relation("tags").Add(toAny(tags)...); err != nil {
		return err
	}
	return c.PersistTags(ctx, cm)
}

// RemoveTags untags cm and persists the change.
func (c *Controller) RemoveTags(ctx context.Context, cm *Comment, tags ...string) error {
	if err := cm.Relation("tags").Remove(toAny(tags)...); err != nil {
		return err
	}
	return c.PersistTags(ctx, cm)
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
