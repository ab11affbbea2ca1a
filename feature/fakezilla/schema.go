package fakezilla

import (
	"fmt"
	"reflect"
	"strings"

	"bugsync/core/database"

	"gorm.io/gorm"
)

// SchemaReport is the result of comparing the store tables to the models.
type SchemaReport struct {
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

// TableReport lists the problems found in one table.
type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

type column struct {
	name string
	typ  string
}

// CheckSchema verifies that every column declared by the models exists with
// a compatible type.
func CheckSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Matched: true,
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
	}

	for _, model := range Models() {
		tabler, ok := model.(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %T does not implement TableName", model)
		}
		table := tabler.TableName()

		actual, err := database.GetTableColumns(db, table)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
			report.Matched = false
			continue
		}
		actualMap := make(map[string]database.ColumnInfo, len(actual))
		for _, col := range actual {
			actualMap[col.Field] = col
		}

		tbl := TableReport{MissingColumns: []string{}, TypeMismatches: []string{}, Status: "ok"}
		for _, want := range modelColumns(reflect.TypeOf(model).Elem()) {
			got, exists := actualMap[want.name]
			if !exists {
				tbl.MissingColumns = append(tbl.MissingColumns, want.name)
				continue
			}
			if want.typ != "" && !compatible(want.typ, got.Type) {
				tbl.TypeMismatches = append(tbl.TypeMismatches, fmt.Sprintf("%s: expected %s, got %s", want.name, want.typ, got.Type))
			}
		}
		if len(tbl.MissingColumns) > 0 || len(tbl.TypeMismatches) > 0 {
			tbl.Status = "error"
			report.Matched = false
		}
		report.Tables[table] = tbl
	}

	return report, nil
}

// modelColumns reads the column and type of every gorm-tagged field,
// descending into embedded structs.
func modelColumns(t reflect.Type) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			cols = append(cols, modelColumns(field.Type)...)
			continue
		}
		tag := field.Tag.Get("gorm")
		name := gormTagValue(tag, "column")
		if name == "" {
			continue
		}
		cols = append(cols, column{name: name, typ: strings.ToLower(gormTagValue(tag, "type"))})
	}
	return cols
}

func gormTagValue(tag, key string) string {
	for _, part := range strings.Split(tag, ";") {
		if v, ok := strings.CutPrefix(part, key+":"); ok {
			return v
		}
	}
	return ""
}

// compatible accepts the actual type when it contains the expected one, and
// treats every text flavour alike since sqlite has no longtext.
func compatible(want, got string) bool {
	if strings.Contains(got, want) {
		return true
	}
	return strings.HasSuffix(want, "text") && strings.Contains(got, "text")
}
