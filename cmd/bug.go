package cmd

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"bugsync/feature/bug"

	"github.com/spf13/cobra"
)

var (
	getFields []string

	createSummary     string
	createProduct     string
	createComponent   string
	createVersion     string
	createDescription string
	createSets        []string

	updateSets    []string
	updateAdds    []string
	updateRemoves []string
	updateComment string

	tagAdds    []string
	tagRemoves []string

	attachSummary     string
	attachContentType string
	attachComment     string
)

// getCmd prints one bug.
var getCmd = &cobra.Command{
	Use:   "get <bug-id>",
	Short: "Print a bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		b, err := s.ctrl.Fetch(cmd.Context(), id, getFields...)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), b.ToMap())
	},
}

// commentsCmd prints the comments of a bug.
var commentsCmd = &cobra.Command{
	Use:   "comments <bug-id>",
	Short: "Print the comments of a bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := connectWithBug(cmd, args[0])
		if err != nil {
			return err
		}
		comments, err := s.ctrl.Comments(cmd.Context(), b)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), records(comments))
	},
}

// attachmentsCmd prints the attachments of a bug.
var attachmentsCmd = &cobra.Command{
	Use:   "attachments <bug-id>",
	Short: "Print the attachments of a bug",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := connectWithBug(cmd, args[0])
		if err != nil {
			return err
		}
		atts, err := s.ctrl.Attachments(cmd.Context(), b)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), records(atts))
	},
}

// createCmd files a new bug.
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "File a new bug",
	Long: `Files a new bug. Product, component and version default to the tracker
defaults; --set adds any other field.

Example:
  bugsync create --summary "Crash on start" --description "Steps..." --set op_sys=Linux`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := bug.New()
		if err := b.Set("summary", createSummary); err != nil {
			return err
		}
		for field, v := range map[string]string{
			"product":   createProduct,
			"component": createComponent,
			"version":   createVersion,
		} {
			if v == "" {
				continue
			}
			if err := b.Set(field, v); err != nil {
				return err
			}
		}
		for _, a := range createSets {
			field, v, err := parseAssignment(a)
			if err != nil {
				return err
			}
			if err := b.Set(field, v); err != nil {
				return err
			}
		}

		s, err := connect(cmd)
		if err != nil {
			return err
		}
		if createDescription != "" {
			if err := s.ctrl.AddComment(cmd.Context(), b, createDescription); err != nil {
				return err
			}
		}
		if err := s.ctrl.Persist(cmd.Context(), b); err != nil {
			return err
		}
		id, _ := b.ID()
		return printResult(cmd.OutOrStdout(), map[string]any{"id": id})
	},
}

// updateCmd changes fields of a bug and sends only the difference.
var updateCmd = &cobra.Command{
	Use:   "update <bug-id>",
	Short: "Change a bug",
	Long: `Fetches the bug, applies the changes locally and sends only the fields
that differ from the fetched copy.

Example:
  bugsync update 123 --set status=RESOLVED --set resolution=FIXED \
    --add keywords=regression --remove cc=someone@example.com --comment "Fixed"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		b, err := s.ctrl.Fetch(cmd.Context(), id)
		if err != nil {
			return err
		}

		for _, a := range updateSets {
			field, v, err := parseAssignment(a)
			if err != nil {
				return err
			}
			if err := b.Set(field, v); err != nil {
				return err
			}
		}
		for _, a := range updateAdds {
			field, v, err := parseAssignment(a)
			if err != nil {
				return err
			}
			if err := b.Relation(field).Add(v); err != nil {
				return err
			}
		}
		for _, a := range updateRemoves {
			field, v, err := parseAssignment(a)
			if err != nil {
				return err
			}
			if err := b.Relation(field).Remove(v); err != nil {
				return err
			}
		}
		if updateComment != "" {
			if err := b.Set("comment", updateComment); err != nil {
				return err
			}
		}

		delta := b.Diff()
		if err := s.ctrl.Persist(cmd.Context(), b); err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), map[string]any{"id": id, "changed": delta.Fields()})
	},
}

// commentCmd posts a comment.
var commentCmd = &cobra.Command{
	Use:   "comment <bug-id> <text>",
	Short: "Comment on a bug",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, b, err := connectWithBug(cmd, args[0])
		if err != nil {
			return err
		}
		return s.ctrl.AddComment(cmd.Context(), b, args[1])
	},
}

// tagCmd adds and removes comment tags.
var tagCmd = &cobra.Command{
	Use:   "tag <bug-id> <comment-id>",
	Short: "Tag or untag a comment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		commentID, err := parseID(args[1])
		if err != nil {
			return err
		}
		s, b, err := connectWithBug(cmd, args[0])
		if err != nil {
			return err
		}
		comments, err := s.ctrl.Comments(cmd.Context(), b)
		if err != nil {
			return err
		}
		for _, cm := range comments {
			if id, _ := cm.ID(); id != commentID {
				continue
			}
			if err := cm.Relation("tags").Add(toAnySlice(tagAdds)...); err != nil {
				return err
			}
			if err := cm.Relation("tags").Remove(toAnySlice(tagRemoves)...); err != nil {
				return err
			}
			if err := s.ctrl.PersistTags(cmd.Context(), cm); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), map[string]any{"id": commentID, "tags": cm.List("tags")})
		}
		return fmt.Errorf("bug %s has no comment %d", args[0], commentID)
	},
}

// attachCmd uploads a file as an attachment.
var attachCmd = &cobra.Command{
	Use:   "attach <bug-id> <file>",
	Short: "Attach a file to a bug",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("failed to read attachment: %w", err)
		}
		contentType := attachContentType
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(args[1]))
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		summary := attachSummary
		if summary == "" {
			summary = filepath.Base(args[1])
		}

		att := bug.NewAttachment()
		for field, v := range map[string]any{
			"data":         base64.StdEncoding.EncodeToString(data),
			"file_name":    filepath.Base(args[1]),
			"summary":      summary,
			"content_type": contentType,
		} {
			if err := att.Set(field, v); err != nil {
				return err
			}
		}
		if attachComment != "" {
			if err := att.Set("comment", attachComment); err != nil {
				return err
			}
		}

		s, b, err := connectWithBug(cmd, args[0])
		if err != nil {
			return err
		}
		if err := s.ctrl.AddAttachment(cmd.Context(), b, att); err != nil {
			return err
		}
		id, _ := att.ID()
		return printResult(cmd.OutOrStdout(), map[string]any{"id": id})
	},
}

func connectWithBug(cmd *cobra.Command, arg string) (*session, *bug.Bug, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, nil, err
	}
	s, err := connect(cmd)
	if err != nil {
		return nil, nil, err
	}
	b, err := stub(id)
	if err != nil {
		return nil, nil, err
	}
	return s, b, nil
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func init() {
	getCmd.Flags().StringSliceVar(&getFields, "fields", nil, "only fetch these fields")

	createCmd.Flags().StringVar(&createSummary, "summary", "", "one line summary")
	createCmd.Flags().StringVar(&createProduct, "product", "", "product")
	createCmd.Flags().StringVar(&createComponent, "component", "", "component")
	createCmd.Flags().StringVar(&createVersion, "version", "", "version")
	createCmd.Flags().StringVar(&createDescription, "description", "", "opening comment")
	createCmd.Flags().StringArrayVar(&createSets, "set", nil, "field=value, repeatable")
	_ = createCmd.MarkFlagRequired("summary")

	updateCmd.Flags().StringArrayVar(&updateSets, "set", nil, "field=value, repeatable")
	updateCmd.Flags().StringArrayVar(&updateAdds, "add", nil, "field=value to add to a list field, repeatable")
	updateCmd.Flags().StringArrayVar(&updateRemoves, "remove", nil, "field=value to remove from a list field, repeatable")
	updateCmd.Flags().StringVar(&updateComment, "comment", "", "comment to post with the change")

	tagCmd.Flags().StringSliceVar(&tagAdds, "add", nil, "tags to add")
	tagCmd.Flags().StringSliceVar(&tagRemoves, "remove", nil, "tags to remove")

	attachCmd.Flags().StringVar(&attachSummary, "summary", "", "attachment description, defaults to the file name")
	attachCmd.Flags().StringVar(&attachContentType, "content-type", "", "MIME type, guessed from the extension by default")
	attachCmd.Flags().StringVar(&attachComment, "comment", "", "comment to post with the attachment")

	RootCmd.AddCommand(getCmd, commentsCmd, attachmentsCmd, createCmd, updateCmd, commentCmd, tagCmd, attachCmd)
}
