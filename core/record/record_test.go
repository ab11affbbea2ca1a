package record

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"bugsync/core/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name: "bug",
	Fields: map[string]Field{
		"status":           {Class: String, Enum: []string{"NEW", "RESOLVED"}, NeedsID: true},
		"resolution":       {Class: String, Enum: []string{"FIXED", "WONTFIX"}},
		"summary":          {Class: String},
		"is_private":       {Class: Bool},
		"cc":               {Class: Relational},
		"keywords":         {Class: Relational},
		"blocks":           {Class: Relational},
		"flags":            {Class: List},
		"data":             {Class: Base64},
		"creation_time":    {Class: Time},
		"last_change_time": {Class: Time},
	},
	Defaults: map[string]any{"product": "core", "version": "unspecified"},
	Required: []string{"product", "summary", "version"},
}

func hydrated(t *testing.T, fields map[string]any) *Record {
	t.Helper()
	r, err := Hydrate(testSchema, fields)
	require.NoError(t, err)
	return r
}

func TestNew_Defaults(t *testing.T) {
	r := New(testSchema)

	assert.Equal(t, Draft, r.State())
	assert.Equal(t, "core", r.Get("product"))
	assert.Equal(t, "", r.Get("summary"))
	assert.Equal(t, []any{}, r.Get("keywords"))
	assert.Nil(t, r.Get("whatever"))

	_, ok := r.ID()
	assert.False(t, ok)
}

func TestNew_IndependentState(t *testing.T) {
	a := New(testSchema)
	b := New(testSchema)

	require.NoError(t, a.Set("product", "firefox"))
	require.NoError(t, a.Relation("keywords").Add("ateam"))

	assert.Equal(t, "core", b.Get("product"))
	assert.Equal(t, []any{}, b.Get("keywords"))
	assert.Equal(t, "core", testSchema.Defaults["product"])
}

func TestHydrate_ParsesTimesAndFillsLists(t *testing.T) {
	r := hydrated(t, map[string]any{
		"id":            float64(1017315),
		"creation_time": "2014-05-28T23:57:58Z",
		"keywords":      nil,
	})

	assert.Equal(t, time.Date(2014, 5, 28, 23, 57, 58, 0, time.UTC), r.Time("creation_time"))
	assert.Equal(t, []any{}, r.Get("keywords"))
	assert.Equal(t, []any{}, r.Get("cc"))

	id, ok := r.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(1017315), id)
	assert.Equal(t, Persisted, r.State())
	assert.Empty(t, r.Diff())
}

func TestHydrate_BadTimestamp(t *testing.T) {
	_, err := Hydrate(testSchema, map[string]any{"creation_time": "yesterday"})
	assert.True(t, errors.Is(err, errs.InvalidFieldType))
}

func TestSet_Status(t *testing.T) {
	t.Run("WithoutID", func(t *testing.T) {
		r := New(testSchema)
		err := r.Set("status", "NEW")
		assert.True(t, errors.Is(err, errs.PreconditionFailed))
		assert.False(t, r.Has("status"))
	})

	t.Run("WithID", func(t *testing.T) {
		r := hydrated(t, map[string]any{"id": 1, "status": "NEW"})
		require.NoError(t, r.Set("status", "RESOLVED"))
		assert.Equal(t, "RESOLVED", r.Get("status"))
	})

	t.Run("OutsideEnum", func(t *testing.T) {
		for _, r := range []*Record{New(testSchema), hydrated(t, map[string]any{"id": 1})} {
			err := r.Set("status", "FOO")
			assert.True(t, errors.Is(err, errs.InvalidValue))
			assert.True(t, errs.IsValidation(err))
		}
	})
}

func TestSet_Resolution(t *testing.T) {
	r := New(testSchema)
	require.NoError(t, r.Set("resolution", "FIXED"))

	err := r.Set("resolution", "MAYBE")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "FIXED", r.Get("resolution"))
}

func TestSet_TypeChecks(t *testing.T) {
	tests := []struct {
		name  string
		field string
		good  any
		bad   any
		kind  errs.Kind
	}{
		{"String", "summary", "foobar", 1, errs.InvalidFieldType},
		{"Bool", "is_private", true, "non-boolean", errs.InvalidFieldType},
		{"Relational", "cc", []string{"a@x.com"}, "a@x.com", errs.InvalidFieldType},
		{"List", "flags", []any{map[string]any{"name": "review"}}, "flag", errs.InvalidFieldType},
		{"Base64", "data", "Rm9vYmFy", "foobar", errs.InvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(testSchema)
			require.NoError(t, r.Set(tt.field, tt.good))

			err := r.Set(tt.field, tt.bad)
			require.Error(t, err)
			assert.Equal(t, tt.kind, errs.KindOf(err))
		})
	}
}

func TestSet_Base64Unchanged(t *testing.T) {
	r := New(testSchema)
	require.NoError(t, r.Set("data", "Rm9vYmFy"))
	assert.Equal(t, "Rm9vYmFy", r.Get("data"))
}

func TestSet_IDReadOnly(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 7})
	err := r.Set("id", 8)
	assert.True(t, errors.Is(err, errs.PreconditionFailed))
	assert.True(t, errors.Is(r.SetID(8), errs.PreconditionFailed))

	d := New(testSchema)
	require.NoError(t, d.SetID(9))
	id, _ := d.ID()
	assert.Equal(t, int64(9), id)
}

func TestSet_CopiesValue(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1})
	cc := []any{"a@x.com"}
	require.NoError(t, r.Set("cc", cc))

	cc[0] = "evil@x.com"
	assert.Equal(t, []any{"a@x.com"}, r.Get("cc"))

	got := r.Get("cc").([]any)
	got[0] = "other@x.com"
	assert.Equal(t, []any{"a@x.com"}, r.Get("cc"))
}

func TestToMap_IsLive(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "summary": "old"})
	r.ToMap()["summary"] = "new"

	assert.Equal(t, "new", r.Get("summary"))
	assert.Equal(t, Delta{"summary": "new"}, r.Diff())
	assert.Equal(t, "old", r.Baseline()["summary"])
}

func TestToMap_TypedSliceRelational(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "cc": []any{"a@x.com", "b@x.com"}})
	r.ToMap()["cc"] = []string{"a@x.com", "c@x.com"}

	assert.Equal(t, Delta{"cc": SetChange{Add: []any{"c@x.com"}, Remove: []any{"b@x.com"}}}, r.Diff())

	r.ToMap()["cc"] = []string{"a@x.com"}
	require.NoError(t, r.Relation("cc").Add("z@x.com"))
	assert.Equal(t, []any{"a@x.com", "z@x.com"}, r.Get("cc"))
	assert.Equal(t, Delta{"cc": SetChange{Add: []any{"z@x.com"}, Remove: []any{"b@x.com"}}}, r.Diff())
}

func TestToMap_TypedSliceWholeList(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "flags": []any{"a"}})
	r.ToMap()["flags"] = []string{"a"}
	assert.Empty(t, r.Diff())

	r.Rebaseline()
	assert.Equal(t, []any{"a"}, r.Baseline()["flags"])
}

func TestSet_DraftID(t *testing.T) {
	d := New(testSchema)
	err := d.Set("id", "abc")
	assert.True(t, errors.Is(err, errs.InvalidFieldType))
	_, ok := d.ID()
	assert.False(t, ok)

	require.NoError(t, d.Set("id", 12))
	id, ok := d.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)
	assert.True(t, errors.Is(d.Set("id", 13), errs.PreconditionFailed))
}

func TestDiff_Keywords(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "keywords": []any{"regression"}})
	require.NoError(t, r.Relation("keywords").Add("ateam"))

	assert.Equal(t, Delta{"keywords": SetChange{Add: []any{"ateam"}}}, r.Diff())
	assert.Equal(t, Modified, r.State())
}

func TestDiff_CCReplace(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "cc": []any{"a@x.com", "b@x.com"}})
	require.NoError(t, r.Set("cc", []string{"a@x.com", "c@x.com"}))

	assert.Equal(t, Delta{"cc": SetChange{Add: []any{"c@x.com"}, Remove: []any{"b@x.com"}}}, r.Diff())
}

func TestDiff_PermutationIsNoop(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "cc": []any{"a", "b", "c"}, "blocks": []any{1, 2}})
	require.NoError(t, r.Set("cc", []any{"c", "a", "b", "a"}))
	require.NoError(t, r.Set("blocks", []int{2, 1}))

	assert.Empty(t, r.Diff())
	assert.Equal(t, Persisted, r.State())
}

func TestDiff_NumbersMatchAcrossTypes(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "blocks": []any{float64(654321)}})
	require.NoError(t, r.Relation("blocks").Remove(654321))
	require.NoError(t, r.Relation("blocks").Add(int64(12)))

	assert.Equal(t, Delta{"blocks": SetChange{Add: []any{int64(12)}, Remove: []any{int64(654321)}}}, r.Diff())
}

func TestDiff_FlagsWholeList(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "flags": []any{"a", "b"}})

	require.NoError(t, r.Set("flags", []any{"b", "a"}))
	assert.Equal(t, Delta{"flags": []any{"b", "a"}}, r.Diff())

	require.NoError(t, r.Set("flags", []any{"a", "b"}))
	assert.Empty(t, r.Diff())
}

func TestDiff_Scalars(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "summary": "old", "priority": "P1"})
	require.NoError(t, r.Set("summary", "new"))
	require.NoError(t, r.Set("assigned_to", "dev@x.com"))
	require.NoError(t, r.Set("priority", "P1"))

	assert.Equal(t, Delta{"summary": "new", "assigned_to": "dev@x.com"}, r.Diff())
	assert.Equal(t, Delta{"summary": "new"}, r.Diff("summary", "status"))
	assert.True(t, r.Changed("summary"))
	assert.False(t, r.Changed("priority"))
}

func TestDiff_NewRelationalKeyIsAllAdded(t *testing.T) {
	schema := &Schema{Fields: map[string]Field{"see_also": {Class: Relational}}}
	r := &Record{schema: schema, current: map[string]any{"id": int64(1)}, baseline: map[string]any{"id": int64(1)}}
	r.current["see_also"] = []any{"https://x/1", "https://x/2"}

	assert.Equal(t, Delta{"see_also": SetChange{Add: []any{"https://x/1", "https://x/2"}}}, r.Diff())
}

func TestRebaseline_ClearsDiff(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "cc": []any{"a"}, "summary": "s"})
	require.NoError(t, r.Relation("cc").Add("b"))
	require.NoError(t, r.Set("summary", "t"))
	require.NotEmpty(t, r.Diff())

	r.Rebaseline()
	assert.Empty(t, r.Diff())

	// the baseline does not alias current
	require.NoError(t, r.Relation("cc").Remove("a"))
	assert.Equal(t, Delta{"cc": SetChange{Remove: []any{"a"}}}, r.Diff())
}

func TestReset_DiscardsEdits(t *testing.T) {
	r := hydrated(t, map[string]any{"id": 1, "summary": "s"})
	require.NoError(t, r.Set("summary", "local"))

	require.NoError(t, r.Reset(map[string]any{"id": 1, "summary": "server"}))
	assert.Equal(t, "server", r.Get("summary"))
	assert.Empty(t, r.Diff())
}

func TestRelation_NotAList(t *testing.T) {
	r := New(testSchema)
	err := r.Relation("summary").Add("x")
	assert.True(t, errors.Is(err, errs.InvalidFieldType))
}

func TestRelation_HasAndDuplicates(t *testing.T) {
	r := New(testSchema)
	rel := r.Relation("keywords")
	require.NoError(t, rel.Add("a", "a", "b"))
	require.NoError(t, rel.Add("b"))

	assert.Equal(t, []any{"a", "b"}, rel.Values())
	assert.True(t, rel.Has("a"))
	assert.False(t, rel.Has("c"))

	require.NoError(t, rel.Remove("a", "zzz"))
	assert.Equal(t, []any{"b"}, rel.Values())
}

func TestMissing(t *testing.T) {
	r := New(testSchema)
	assert.Equal(t, []string{"summary"}, testSchema.Missing(r.ToMap()))

	require.NoError(t, r.Set("summary", "x"))
	assert.Empty(t, testSchema.Missing(r.ToMap()))
}

func TestPick(t *testing.T) {
	fields := map[string]any{"a": "x", "b": "", "c": []any{}, "d": []any{"y"}}
	assert.Equal(t, map[string]any{"a": "x", "d": []any{"y"}}, Pick(fields, nil))
	assert.Equal(t, map[string]any{"b": ""}, Pick(fields, []string{"b", "z"}))
}

func TestApply_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	universe := []any{"a", "b", "c", "d", "e", "f"}
	pick := func() []any {
		var out []any
		for _, v := range universe {
			if rng.Intn(2) == 0 {
				out = append(out, v)
			}
		}
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}

	for i := 0; i < 200; i++ {
		base, cur := pick(), pick()
		r := hydrated(t, map[string]any{"id": 1, "cc": base, "summary": "s"})
		require.NoError(t, r.Set("cc", cur))

		d := r.Diff()
		if c, ok := d["cc"].(SetChange); ok {
			assert.ElementsMatch(t, c.Add, DiffSets(base, cur).Add)
		}

		applied := Apply(testSchema, r.Baseline(), d)
		assert.ElementsMatch(t, cur, applied["cc"])
		assert.Equal(t, "s", applied["summary"])
	}
}

func TestApply_DecodedJSONChange(t *testing.T) {
	doc := map[string]any{"keywords": []any{"regression", "crash"}, "summary": "s"}
	delta := map[string]any{
		"keywords": map[string]any{"add": []any{"ateam"}, "remove": []any{"crash"}},
		"summary":  "t",
	}

	out := Apply(testSchema, doc, delta)
	assert.Equal(t, []any{"regression", "ateam"}, out["keywords"])
	assert.Equal(t, "t", out["summary"])
	assert.Equal(t, []any{"regression", "crash"}, doc["keywords"])
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "draft", Draft.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "State(9)", State(9).String())
}
