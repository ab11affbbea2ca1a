package fakezilla

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"bugsync/core/record"
	"bugsync/core/server"
	"bugsync/core/utils"
	"bugsync/feature/bug"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service implements the tracker operations on top of a Store.
type Service struct {
	store  *Store
	cfg    server.Config
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]struct{}
}

// NewService creates a new tracker service.
func NewService(store *Store, cfg server.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]struct{}),
	}
}

func (s *Service) stamp() string {
	return s.now().UTC().Format(record.TimeLayout)
}

// Login checks the credentials and opens a session. The token has the
// "<user id>-<cookie>" form so it also works as a login cookie.
func (s *Service) Login(login, password string) (int64, string, error) {
	if !s.cfg.CheckLogin(login, password) {
		return 0, "", fail(http.StatusUnauthorized, CodeLoginFailed, "The username or password you entered is not valid.")
	}
	token := fmt.Sprintf("%d-%s", s.cfg.UserID, uuid.NewString())
	s.mu.Lock()
	s.sessions[token] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("Session opened", zap.String("login", login))
	return s.cfg.UserID, token, nil
}

// Logout closes the session.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ValidToken reports whether token belongs to an open session.
func (s *Service) ValidToken(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[token]
	return ok
}

// ValidLogin reports whether apiKey is the key of login.
func (s *Service) ValidLogin(login, apiKey string) bool {
	return login == s.cfg.Username && s.cfg.CheckAPIKey(apiKey)
}

// User returns the account with the given id.
func (s *Service) User(id string) (map[string]any, error) {
	if id != strconv.FormatInt(s.cfg.UserID, 10) && id != s.cfg.Username {
		return nil, fail(http.StatusNotFound, CodeUserMissing, "There is no user named '%s'.", id)
	}
	return map[string]any{
		"id":        s.cfg.UserID,
		"name":      s.cfg.Username,
		"email":     s.cfg.Username,
		"real_name": s.cfg.Username,
		"can_login": true,
	}, nil
}

// Health compares the store tables with the models.
func (s *Service) Health() (*SchemaReport, error) {
	return CheckSchema(s.store.DB())
}

func bugErr(id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return fail(http.StatusNotFound, CodeBugMissing, "Bug %d does not exist.", id)
	}
	return err
}

// Bug returns bug id.
func (s *Service) Bug(ctx context.Context, id int64) (map[string]any, error) {
	doc, err := s.store.Bug(ctx, id)
	if err != nil {
		return nil, bugErr(id, err)
	}
	return doc, nil
}

// SearchBugs returns the bugs matching f in id order.
func (s *Service) SearchBugs(ctx context.Context, f Filter) ([]map[string]any, error) {
	docs, err := s.store.Bugs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if f.Match(doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

// CreateBug validates body and stores it as a new bug. The "comment" member
// becomes the description, comment 0.
func (s *Service) CreateBug(ctx context.Context, body map[string]any) (int64, error) {
	// A draft record refuses status, so it is checked on its own.
	draft := record.New(bug.BugSchema)
	for field, v := range body {
		if field == "status" {
			continue
		}
		if err := draft.Set(field, v); err != nil {
			return 0, invalid(err)
		}
	}
	if st, ok := body["status"]; ok && !slices.Contains(bug.Statuses, utils.ToString(st)) {
		return 0, fail(http.StatusBadRequest, CodeInvalidValue, "status: invalid status %q", utils.ToString(st))
	}
	if missing := bug.BugSchema.Missing(body); len(missing) > 0 {
		return 0, fail(http.StatusBadRequest, CodeMissingField, "You must enter a value for %s.", missing[0])
	}

	doc := maps.Clone(body)
	description := utils.ToString(doc["comment"])
	delete(doc, "comment")
	delete(doc, "id")

	stamp := s.stamp()
	if _, ok := doc["status"]; !ok {
		doc["status"] = "NEW"
	}
	doc["resolution"] = ""
	doc["creator"] = s.cfg.Username
	doc["creation_time"] = stamp
	doc["last_change_time"] = stamp
	for name, f := range bug.BugSchema.Fields {
		if _, ok := doc[name]; !ok && (f.Class == record.Relational || f.Class == record.List) {
			doc[name] = []any{}
		}
	}

	id, err := s.store.CreateBug(ctx, doc)
	if err != nil {
		return 0, err
	}
	if _, err := s.store.AddComment(ctx, id, s.commentDoc(description, false)); err != nil {
		return 0, err
	}
	s.logger.Info("Bug created", zap.Int64("bug_id", id))
	return id, nil
}

// UpdateBug applies body to bug id and returns the update summary. Relational
// fields take {"add": [...], "remove": [...]} objects or whole lists; a
// "comment" member ({"body": text}) is appended to the bug's comments.
func (s *Service) UpdateBug(ctx context.Context, id int64, body map[string]any) (map[string]any, error) {
	body = maps.Clone(body)
	text, private, hasComment, err := commentBody(body["comment"])
	if err != nil {
		return nil, err
	}
	delete(body, "comment")
	delete(body, "ids")
	delete(body, "id")

	stamp := s.stamp()
	changes := map[string]any{}
	_, err = s.store.UpdateBug(ctx, id, func(doc map[string]any) error {
		rec, err := record.Hydrate(bug.BugSchema, doc)
		if err != nil {
			return err
		}
		for field, v := range body {
			if c, ok := v.(map[string]any); ok && bug.BugSchema.ClassOf(field) == record.Relational {
				if err := checkSetChange(field, c); err != nil {
					return err
				}
				continue
			}
			if err := rec.Set(field, v); err != nil {
				return invalid(err)
			}
		}
		updated := record.Apply(bug.BugSchema, doc, body)
		for field := range body {
			if c, ok := change(doc[field], updated[field]); ok {
				changes[field] = c
			}
		}
		updated["last_change_time"] = stamp
		clear(doc)
		maps.Copy(doc, updated)
		return nil
	})
	if err != nil {
		return nil, bugErr(id, err)
	}
	if hasComment {
		if _, err := s.store.AddComment(ctx, id, s.commentDoc(text, private)); err != nil {
			return nil, bugErr(id, err)
		}
	}
	s.logger.Info("Bug updated", zap.Int64("bug_id", id), zap.Int("changes", len(changes)))
	return map[string]any{
		"id":               id,
		"last_change_time": stamp,
		"changes":          changes,
	}, nil
}

// Comments returns the comments of bug bugID, oldest first.
func (s *Service) Comments(ctx context.Context, bugID int64) ([]map[string]any, error) {
	if _, err := s.Bug(ctx, bugID); err != nil {
		return nil, err
	}
	return s.store.Comments(ctx, bugID)
}

// AddComment appends a comment to bug bugID.
func (s *Service) AddComment(ctx context.Context, bugID int64, text string, private bool) (int64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, fail(http.StatusBadRequest, CodeMissingField, "You must specify a comment.")
	}
	id, err := s.store.AddComment(ctx, bugID, s.commentDoc(text, private))
	if err != nil {
		return 0, bugErr(bugID, err)
	}
	return id, nil
}

// UpdateCommentTags adds and removes tags of comment id and returns the
// resulting tag list.
func (s *Service) UpdateCommentTags(ctx context.Context, id int64, body map[string]any) ([]any, error) {
	if err := checkSetChange("tags", body); err != nil {
		return nil, err
	}
	doc, err := s.store.UpdateComment(ctx, id, func(doc map[string]any) error {
		doc["tags"] = record.Apply(bug.CommentSchema, doc, map[string]any{"tags": body})["tags"]
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fail(http.StatusNotFound, CodeCommentMissing, "There is no comment with the id '%d'.", id)
	}
	if err != nil {
		return nil, err
	}
	return toList(doc["tags"]), nil
}

// Attachments returns the attachments of bug bugID.
func (s *Service) Attachments(ctx context.Context, bugID int64) ([]map[string]any, error) {
	if _, err := s.Bug(ctx, bugID); err != nil {
		return nil, err
	}
	return s.store.Attachments(ctx, bugID)
}

// Attachment returns attachment id.
func (s *Service) Attachment(ctx context.Context, id int64) (map[string]any, error) {
	doc, err := s.store.Attachment(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fail(http.StatusNotFound, CodeAttachmentMissing, "Attachment #%d does not exist.", id)
	}
	return doc, err
}

// CreateAttachment stores the attachment in body on every bug named by its
// "ids" member, bugID when absent, and returns the new attachment ids.
func (s *Service) CreateAttachment(ctx context.Context, bugID int64, body map[string]any) ([]int64, error) {
	body = maps.Clone(body)
	bugIDs := []int64{bugID}
	if raw, ok := body["ids"]; ok {
		ids, err := toIDs(raw)
		if err != nil {
			return nil, err
		}
		bugIDs = ids
	}
	delete(body, "ids")

	draft := record.New(bug.AttachmentSchema)
	for field, v := range body {
		if err := draft.Set(field, v); err != nil {
			return nil, invalid(err)
		}
	}
	if missing := bug.AttachmentSchema.Missing(body); len(missing) > 0 {
		return nil, fail(http.StatusBadRequest, CodeMissingField, "You must enter a value for %s.", missing[0])
	}
	data, _ := base64.StdEncoding.DecodeString(utils.ToString(body["data"]))
	description := utils.ToString(body["comment"])

	stamp := s.stamp()
	ids := make([]int64, 0, len(bugIDs))
	for _, target := range bugIDs {
		doc := record.Pick(body, bug.AttachmentSchema.CreateFields)
		delete(doc, "comment")
		for _, name := range []string{"flags", "bug_flags"} {
			if _, ok := doc[name]; !ok {
				doc[name] = []any{}
			}
		}
		for _, name := range []string{"is_obsolete", "is_patch", "is_private", "is_markdown"} {
			if _, ok := doc[name]; !ok {
				doc[name] = false
			}
		}
		doc["size"] = int64(len(data))
		doc["creator"] = s.cfg.Username
		doc["creation_time"] = stamp
		doc["last_change_time"] = stamp

		id, err := s.store.AddAttachment(ctx, target, doc)
		if err != nil {
			return nil, bugErr(target, err)
		}
		if description != "" {
			cm := s.commentDoc(description, false)
			cm["attachment_id"] = id
			if _, err := s.store.AddComment(ctx, target, cm); err != nil {
				return nil, bugErr(target, err)
			}
		}
		ids = append(ids, id)
	}
	s.logger.Info("Attachments created", zap.Int64s("attachment_ids", ids))
	return ids, nil
}

// UpdateAttachment applies body to attachment id. Only the updatable fields
// are accepted.
func (s *Service) UpdateAttachment(ctx context.Context, id int64, body map[string]any) (map[string]any, error) {
	body = maps.Clone(body)
	delete(body, "ids")
	description := utils.ToString(body["comment"])
	delete(body, "comment")
	for field := range body {
		if !slices.Contains(bug.AttachmentSchema.UpdateFields, field) {
			return nil, fail(http.StatusBadRequest, CodeInvalidValue, "%s can not be changed", field)
		}
	}

	stamp := s.stamp()
	changes := map[string]any{}
	var bugID int64
	_, err := s.store.UpdateAttachment(ctx, id, func(doc map[string]any) error {
		rec, err := record.Hydrate(bug.AttachmentSchema, doc)
		if err != nil {
			return err
		}
		for field, v := range body {
			if err := rec.Set(field, v); err != nil {
				return invalid(err)
			}
		}
		updated := record.Apply(bug.AttachmentSchema, doc, body)
		for field := range body {
			if c, ok := change(doc[field], updated[field]); ok {
				changes[field] = c
			}
		}
		updated["last_change_time"] = stamp
		bugID, _ = utils.ToInt64(updated["bug_id"])
		clear(doc)
		maps.Copy(doc, updated)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, fail(http.StatusNotFound, CodeAttachmentMissing, "Attachment #%d does not exist.", id)
	}
	if err != nil {
		return nil, err
	}
	if description != "" {
		cm := s.commentDoc(description, false)
		cm["attachment_id"] = id
		if _, err := s.store.AddComment(ctx, bugID, cm); err != nil {
			return nil, bugErr(bugID, err)
		}
	}
	return map[string]any{
		"id":               id,
		"last_change_time": stamp,
		"changes":          changes,
	}, nil
}

func (s *Service) commentDoc(text string, private bool) map[string]any {
	stamp := s.stamp()
	return map[string]any{
		"text":          text,
		"is_private":    private,
		"tags":          []any{},
		"creator":       s.cfg.Username,
		"time":          stamp,
		"creation_time": stamp,
	}
}

// commentBody reads the comment member of an update, either {"body": text,
// "is_private": bool} or a bare string.
func commentBody(v any) (text string, private bool, ok bool, err error) {
	switch c := v.(type) {
	case nil:
		return "", false, false, nil
	case string:
		return c, false, true, nil
	case map[string]any:
		text, isString := c["body"].(string)
		if !isString {
			return "", false, false, fail(http.StatusBadRequest, CodeInvalidValue, "comment: body must be a string")
		}
		private, _ := c["is_private"].(bool)
		return text, private, true, nil
	default:
		return "", false, false, fail(http.StatusBadRequest, CodeInvalidValue, "comment: unexpected %T", v)
	}
}

func checkSetChange(field string, c map[string]any) error {
	for _, key := range []string{"add", "remove"} {
		v, ok := c[key]
		if !ok {
			continue
		}
		if _, isList := v.([]any); !isList {
			return fail(http.StatusBadRequest, CodeInvalidValue, "%s: %s must be a list", field, key)
		}
	}
	return nil
}

// change describes how a field moved from before to after, in the tracker's
// {"added": ..., "removed": ...} form.
func change(before, after any) (map[string]any, bool) {
	beforeList, beforeIsList := before.([]any)
	afterList, afterIsList := after.([]any)
	if beforeIsList || afterIsList {
		d := record.DiffSets(beforeList, afterList)
		if d.Empty() {
			return nil, false
		}
		return map[string]any{"added": joinValues(d.Add), "removed": joinValues(d.Remove)}, true
	}
	if reflect.DeepEqual(before, after) {
		return nil, false
	}
	return map[string]any{"added": utils.ToString(after), "removed": utils.ToString(before)}, true
}

func joinValues(vs []any) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = utils.ToString(v)
	}
	return strings.Join(parts, ", ")
}

func toList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}

func toIDs(v any) ([]int64, error) {
	raw, ok := v.([]any)
	if !ok || len(raw) == 0 {
		return nil, fail(http.StatusBadRequest, CodeInvalidBugID, "ids must be a non-empty list of bug ids")
	}
	ids := make([]int64, 0, len(raw))
	for _, e := range raw {
		id, ok := utils.ToInt64(e)
		if !ok || id <= 0 {
			return nil, fail(http.StatusBadRequest, CodeInvalidBugID, "'%v' is not a valid bug number.", e)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
