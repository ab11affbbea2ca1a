package bug

import "bugsync/core/record"

// Valid values of the status and resolution fields.
var (
	Statuses    = []string{"ASSIGNED", "NEW", "REOPENED", "RESOLVED", "UNCONFIRMED", "VERIFIED"}
	Resolutions = []string{"DUPLICATE", "FIXED", "INACTIVE", "INCOMPLETE", "INVALID", "MOVED", "WONTFIX", "WORKSFORME"}
)

// BugSchema describes bug records.
var BugSchema = &record.Schema{
	Name: "bug",
	Fields: map[string]record.Field{
		"status":     {Class: record.String, Enum: Statuses, NeedsID: true},
		"resolution": {Class: record.String, Enum: Resolutions},
		"summary":    {Class: record.String},
		"comment":    {Class: record.String},

		"blocks":     {Class: record.Relational},
		"cc":         {Class: record.Relational},
		"depends_on": {Class: record.Relational},
		"groups":     {Class: record.Relational},
		"keywords":   {Class: record.Relational},
		"see_also":   {Class: record.Relational},
		"flags":      {Class: record.List},

		"creation_time":    {Class: record.Time},
		"last_change_time": {Class: record.Time},
	},
	Defaults: map[string]any{
		"op_sys":    "All",
		"product":   "core",
		"component": "general",
		"platform":  "All",
		"version":   "unspecified",
	},
	Required: []string{"product", "component", "summary", "version"},
}

// CommentSchema describes comment records. Only tags can be changed once a
// comment exists.
var CommentSchema = &record.Schema{
	Name: "comment",
	Fields: map[string]record.Field{
		"text":          {Class: record.String},
		"is_private":    {Class: record.Bool},
		"tags":          {Class: record.Relational},
		"time":          {Class: record.Time},
		"creation_time": {Class: record.Time},
	},
	UpdateFields: []string{"tags"},
}

// AttachmentSchema describes attachment records.
var AttachmentSchema = &record.Schema{
	Name: "attachment",
	Fields: map[string]record.Field{
		"data":         {Class: record.Base64},
		"file_name":    {Class: record.String},
		"summary":      {Class: record.String},
		"content_type": {Class: record.String},
		"comment":      {Class: record.String},

		"is_patch":    {Class: record.Bool},
		"is_private":  {Class: record.Bool},
		"is_obsolete": {Class: record.Bool},
		"is_markdown": {Class: record.Bool},

		"flags":     {Class: record.List},
		"bug_flags": {Class: record.List},

		"creation_time":    {Class: record.Time},
		"last_change_time": {Class: record.Time},
	},
	Required: []string{"data", "file_name", "summary", "content_type"},
	CreateFields: []string{
		"comment", "content_type", "data", "file_name", "flags",
		"is_markdown", "is_patch", "is_private", "summary",
	},
	UpdateFields: []string{
		"bug_flags", "comment", "content_type", "file_name", "flags",
		"is_obsolete", "is_patch", "is_private", "summary",
	},
}
