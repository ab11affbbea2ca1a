package bug

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bugsync/core/errs"
	"bugsync/core/record"
	"bugsync/core/transport"
	"bugsync/core/utils"

	"go.uber.org/zap"
)

// Controller synchronizes bug, comment and attachment records with the
// tracker through a transport.Requester.
type Controller struct {
	client transport.Requester
	logger *zap.Logger
}

// NewController creates a new controller.
func NewController(client transport.Requester, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{client: client, logger: logger}
}

// Fetch reads bug id. When fields are given only those are requested.
func (c *Controller) Fetch(ctx context.Context, id int64, fields ...string) (*Bug, error) {
	doc, err := c.fetch(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	return Decode(doc)
}

// Refresh re-reads b from the tracker, discarding local edits.
func (c *Controller) Refresh(ctx context.Context, b *Bug) error {
	id, ok := b.ID()
	if !ok {
		return errs.New(errs.PreconditionFailed, "refresh bug", "a draft bug has nothing to refresh")
	}
	doc, err := c.fetch(ctx, id, nil)
	if err != nil {
		return err
	}
	return b.Reset(foldCC(doc))
}

func (c *Controller) fetch(ctx context.Context, id int64, fields []string) (map[string]any, error) {
	req := &transport.Request{Path: bugPath(id)}
	if len(fields) > 0 {
		req.Query = url.Values{"include_fields": {strings.Join(fields, ",")}}
	}
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var out struct {
		Bugs []map[string]any `json:"bugs"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, &errs.Error{Kind: errs.RemoteError, Op: "fetch bug", Err: err}
	}
	if len(out.Bugs) == 0 {
		return nil, errs.New(errs.NotFound, "fetch bug", "bug %d does not exist", id)
	}
	return out.Bugs[0], nil
}

// Persist creates a draft bug or ships the changes of a persisted one. On
// failure neither the current state nor the baseline of b change.
func (c *Controller) Persist(ctx context.Context, b *Bug) error {
	if !c.client.Authenticated() {
		return errs.New(errs.Unauthenticated, "persist bug", "credentials are required to change the tracker")
	}
	if id, ok := b.ID(); ok {
		return c.update(ctx, b, id)
	}
	return c.create(ctx, b)
}

func (c *Controller) create(ctx context.Context, b *Bug) error {
	if missing := BugSchema.Missing(b.ToMap()); len(missing) > 0 {
		return errs.New(errs.PreconditionFailed, "create bug", "missing mandatory fields: %s", strings.Join(missing, ", "))
	}
	payload := record.Pick(b.ToMap(), BugSchema.CreateFields)

	resp, err := c.client.Do(ctx, &transport.Request{Method: http.MethodPost, Path: "bug", Body: payload})
	if err != nil {
		return err
	}
	id, err := decodeID(resp, "id")
	if err != nil {
		return &errs.Error{Kind: errs.RemoteError, Op: "create bug", Err: err}
	}
	if err := b.SetID(id); err != nil {
		return err
	}
	b.Delete("comment")
	b.Rebaseline()
	c.logger.Info("Bug created", zap.Int64("id", id))
	return nil
}

func (c *Controller) update(ctx context.Context, b *Bug, id int64) error {
	delta := b.Diff()
	if len(delta) == 0 {
		c.logger.Debug("Bug unchanged, skipping update", zap.Int64("id", id))
		return nil
	}
	if text, ok := delta["comment"].(string); ok {
		delta["comment"] = map[string]any{"body": text}
	}

	if _, err := c.client.Do(ctx, &transport.Request{Method: http.MethodPut, Path: bugPath(id), Body: delta}); err != nil {
		return err
	}
	b.Delete("comment")
	b.Rebaseline()
	c.logger.Info("Bug updated", zap.Int64("id", id), zap.Strings("fields", delta.Fields()))
	return nil
}

func bugPath(id int64) string {
	return "bug/" + strconv.FormatInt(id, 10)
}

// decodeID reads a numeric id from key of a JSON object. A list value yields
// its first element.
func decodeID(resp *transport.Response, key string) (int64, error) {
	var out map[string]any
	if err := resp.Decode(&out); err != nil {
		return 0, err
	}
	v := out[key]
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[0]
	}
	id, ok := utils.ToInt64(v)
	if !ok {
		return 0, errs.New(errs.RemoteError, "decode", "response carries no %s: %v", key, v)
	}
	return id, nil
}

// decodeList decodes a JSON list of objects, as found under keyed maps of
// comment and attachment responses.
func decodeList(raw any) []map[string]any {
	list, _ := raw.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
