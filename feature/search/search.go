package search

import (
	"context"
	"fmt"
	"net/url"
	"slices"

	"bugsync/core/errs"
	"bugsync/core/transport"
	"bugsync/feature/bug"

	"github.com/google/go-querystring/query"
	"go.uber.org/zap"
)

// DefaultFields are always requested.
var DefaultFields = []string{
	"version", "id", "summary", "status", "op_sys",
	"resolution", "product", "component", "platform", "whiteboard",
}

// params is the wire form of a bug search.
type params struct {
	IncludeFields  []string `url:"include_fields,omitempty"`
	Keywords       []string `url:"keywords,omitempty"`
	AssignedTo     []string `url:"assigned_to,omitempty"`
	ShortDesc      []string `url:"short_desc,omitempty"`
	ShortDescType  string   `url:"short_desc_type,omitempty"`
	Whiteboard     []string `url:"whiteboard,omitempty"`
	WhiteboardType string   `url:"whiteboard_type,omitempty"`
	Product        []string `url:"product,omitempty"`
	Component      []string `url:"component,omitempty"`
	ChField        []string `url:"chfield,omitempty"`
	ChFieldValue   string   `url:"chfieldvalue,omitempty"`
	ChFieldFrom    string   `url:"chfieldfrom,omitempty"`
	ChFieldTo      string   `url:"chfieldto,omitempty"`
}

// Search builds and runs a bug query. Builder methods return the receiver so
// calls can be chained.
type Search struct {
	client transport.Requester
	ctrl   *bug.Controller
	logger *zap.Logger

	p    params
	bugs []int64
}

// New creates a search requesting DefaultFields.
func New(client transport.Requester, logger *zap.Logger) *Search {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Search{
		client: client,
		ctrl:   bug.NewController(client, logger),
		logger: logger,
		p:      params{IncludeFields: slices.Clone(DefaultFields)},
	}
}

// IncludeFields requests extra fields on top of DefaultFields.
func (s *Search) IncludeFields(fields ...string) *Search {
	s.p.IncludeFields = appendNew(s.p.IncludeFields, fields...)
	return s
}

// Keywords restricts results to bugs carrying the keywords.
func (s *Search) Keywords(keywords ...string) *Search {
	s.p.Keywords = appendNew(s.p.Keywords, keywords...)
	return s
}

// AssignedTo restricts results to bugs assigned to the given users.
func (s *Search) AssignedTo(users ...string) *Search {
	s.p.AssignedTo = appendNew(s.p.AssignedTo, users...)
	return s
}

// Summary matches bugs whose summary contains all the words.
func (s *Search) Summary(words ...string) *Search {
	s.p.ShortDesc = appendNew(s.p.ShortDesc, words...)
	s.p.ShortDescType = "allwordssubstr"
	return s
}

// Whiteboard matches bugs whose whiteboard contains all the words.
func (s *Search) Whiteboard(words ...string) *Search {
	s.p.Whiteboard = appendNew(s.p.Whiteboard, words...)
	s.p.WhiteboardType = "allwordssubstr"
	return s
}

// Product restricts results to the products.
func (s *Search) Product(products ...string) *Search {
	s.p.Product = appendNew(s.p.Product, products...)
	return s
}

// Component restricts results to the components.
func (s *Search) Component(components ...string) *Search {
	s.p.Component = appendNew(s.p.Component, components...)
	return s
}

// BugNumbers fetches the given bugs one by one instead of searching.
func (s *Search) BugNumbers(ids ...int64) *Search {
	for _, id := range ids {
		if !slices.Contains(s.bugs, id) {
			s.bugs = append(s.bugs, id)
		}
	}
	return s
}

// Timeframe restricts results to bugs changed between start and end
// (YYYY-MM-DD, or "Now" for end).
func (s *Search) Timeframe(start, end string) *Search {
	s.p.ChFieldFrom = start
	s.p.ChFieldTo = end
	return s
}

// ChangeHistory restricts results to bugs whose fields changed, optionally
// to value.
func (s *Search) ChangeHistory(fields []string, value string) *Search {
	s.p.ChField = appendNew(s.p.ChField, fields...)
	s.p.ChFieldValue = value
	return s
}

// Query returns the encoded query parameters.
func (s *Search) Query() (url.Values, error) {
	v, err := query.Values(s.p)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}
	return v, nil
}

// Search runs the query.
func (s *Search) Search(ctx context.Context) ([]*bug.Bug, error) {
	if len(s.bugs) > 0 {
		return s.fetchEach(ctx)
	}

	q, err := s.Query()
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(ctx, &transport.Request{Path: "bug", Query: q})
	if err != nil {
		return nil, err
	}
	var out struct {
		Bugs []map[string]any `json:"bugs"`
	}
	if err := resp.Decode(&out); err != nil {
		return nil, &errs.Error{Kind: errs.RemoteError, Op: "search", Err: err}
	}

	bugs := make([]*bug.Bug, 0, len(out.Bugs))
	for _, doc := range out.Bugs {
		b, err := bug.Decode(doc)
		if err != nil {
			return nil, err
		}
		bugs = append(bugs, b)
	}
	s.logger.Debug("Search done", zap.Int("results", len(bugs)))
	return bugs, nil
}

// fetchEach fetches the requested bugs one after another, in order.
func (s *Search) fetchEach(ctx context.Context) ([]*bug.Bug, error) {
	bugs := make([]*bug.Bug, 0, len(s.bugs))
	for _, id := range s.bugs {
		b, err := s.ctrl.Fetch(ctx, id, s.p.IncludeFields...)
		if err != nil {
			return nil, fmt.Errorf("fetch bug %d: %w", id, err)
		}
		bugs = append(bugs, b)
	}
	return bugs, nil
}

func appendNew(list []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
