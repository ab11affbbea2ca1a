package cmd

import (
	"bugsync/feature/search"

	"github.com/spf13/cobra"
)

var (
	searchIDs        []int64
	searchFields     []string
	searchKeywords   []string
	searchAssignedTo []string
	searchSummary    []string
	searchWhiteboard []string
	searchProduct    []string
	searchComponent  []string
	searchFrom       string
	searchTo         string
	searchChanged    []string
	searchChangedTo  string
)

// searchCmd runs a bug search.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search bugs",
	Long: `Searches bugs. Filters combine; words given to --summary and --whiteboard
must all appear.

Example:
  bugsync search --product Firefox --keywords crash --from 2024-01-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		q := search.New(s.client, s.logger).
			IncludeFields(searchFields...).
			Keywords(searchKeywords...).
			AssignedTo(searchAssignedTo...).
			Product(searchProduct...).
			Component(searchComponent...).
			BugNumbers(searchIDs...)
		if len(searchSummary) > 0 {
			q.Summary(searchSummary...)
		}
		if len(searchWhiteboard) > 0 {
			q.Whiteboard(searchWhiteboard...)
		}
		if searchFrom != "" || searchTo != "" {
			q.Timeframe(searchFrom, searchTo)
		}
		if len(searchChanged) > 0 {
			q.ChangeHistory(searchChanged, searchChangedTo)
		}

		bugs, err := q.Search(cmd.Context())
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), records(bugs))
	},
}

func init() {
	f := searchCmd.Flags()
	f.Int64SliceVar(&searchIDs, "ids", nil, "fetch these bugs instead of searching")
	f.StringSliceVar(&searchFields, "fields", nil, "extra fields to return")
	f.StringSliceVar(&searchKeywords, "keywords", nil, "keywords")
	f.StringSliceVar(&searchAssignedTo, "assigned-to", nil, "assignees")
	f.StringSliceVar(&searchSummary, "summary", nil, "words in the summary")
	f.StringSliceVar(&searchWhiteboard, "whiteboard", nil, "words in the whiteboard")
	f.StringSliceVar(&searchProduct, "product", nil, "products")
	f.StringSliceVar(&searchComponent, "component", nil, "components")
	f.StringVar(&searchFrom, "from", "", "changed on or after YYYY-MM-DD")
	f.StringVar(&searchTo, "to", "", "changed on or before YYYY-MM-DD, or Now")
	f.StringSliceVar(&searchChanged, "changed", nil, "fields that changed")
	f.StringVar(&searchChangedTo, "changed-to", "", "value the --changed fields changed to")

	RootCmd.AddCommand(searchCmd)
}
