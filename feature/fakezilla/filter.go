package fakezilla

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"bugsync/core/record"
	"bugsync/core/utils"
)

// Filter selects bugs in a search. Empty members match everything; values
// within one member are alternatives, except Keywords, ShortDesc and
// Whiteboard which must all match.
type Filter struct {
	IDs        []int64
	Product    []string
	Component  []string
	Status     []string
	Resolution []string
	AssignedTo []string
	Keywords   []string

	ShortDesc      []string
	ShortDescType  string
	Whiteboard     []string
	WhiteboardType string

	// ChField and ChFieldValue match bugs whose named field currently holds
	// the value; the fake keeps no history.
	ChField      []string
	ChFieldValue string
	// ChFieldFrom and ChFieldTo bound last_change_time, as YYYY-MM-DD.
	// "Now" leaves the upper bound open.
	ChFieldFrom string
	ChFieldTo   string
}

// Match reports whether doc passes the filter.
func (f Filter) Match(doc map[string]any) bool {
	if len(f.IDs) > 0 {
		id, _ := utils.ToInt64(doc["id"])
		if !slices.Contains(f.IDs, id) {
			return false
		}
	}
	for field, want := range map[string][]string{
		"product":     f.Product,
		"component":   f.Component,
		"status":      f.Status,
		"resolution":  f.Resolution,
		"assigned_to": f.AssignedTo,
	} {
		if len(want) > 0 && !slices.Contains(want, utils.ToString(doc[field])) {
			return false
		}
	}
	if len(f.Keywords) > 0 {
		have := toList(doc["keywords"])
		for _, kw := range f.Keywords {
			if !slices.Contains(have, any(kw)) {
				return false
			}
		}
	}
	if !matchText(utils.ToString(doc["summary"]), f.ShortDesc, f.ShortDescType) {
		return false
	}
	if !matchText(utils.ToString(doc["whiteboard"]), f.Whiteboard, f.WhiteboardType) {
		return false
	}
	if f.ChFieldValue != "" {
		matched := false
		for _, field := range f.ChField {
			if utils.ToString(doc[field]) == f.ChFieldValue {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return f.inTimeframe(utils.ToString(doc["last_change_time"]))
}

// matchText applies the short_desc_type style operators the client sends.
func matchText(text string, words []string, op string) bool {
	if len(words) == 0 {
		return true
	}
	text = strings.ToLower(text)
	contains := func(w string) bool { return strings.Contains(text, strings.ToLower(w)) }
	switch op {
	case "anywordssubstr":
		return slices.ContainsFunc(words, contains)
	case "substring":
		return contains(strings.Join(words, " "))
	default:
		for _, w := range words {
			if !contains(w) {
				return false
			}
		}
		return true
	}
}

func (f Filter) inTimeframe(changed string) bool {
	if f.ChFieldFrom == "" && f.ChFieldTo == "" {
		return true
	}
	t, err := record.ParseTime(changed)
	if err != nil {
		return false
	}
	if from, err := time.Parse(time.DateOnly, f.ChFieldFrom); err == nil && t.Before(from) {
		return false
	}
	if f.ChFieldTo != "" && !strings.EqualFold(f.ChFieldTo, "now") {
		if to, err := time.Parse(time.DateOnly, f.ChFieldTo); err == nil && !t.Before(to.AddDate(0, 0, 1)) {
			return false
		}
	}
	return true
}

// parseIDs reads bug ids given as repeated or comma separated values.
func parseIDs(values []string) ([]int64, error) {
	var ids []int64
	for _, v := range values {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fail(400, CodeInvalidBugID, "'%s' is not a valid bug number.", v)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
