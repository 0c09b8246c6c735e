package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"huginn/internal/service"
)

const snippetWidth = 60

type searchOutput struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

func newSearchCommand(a *app) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search note content",
		Long: `Search the full-text index for notes matching the query.

Results are ranked by relevance, best match first.`,
		Example: `  huginnctl search hello
  huginnctl search -l 5 -f json "meeting notes"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}

			ctx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			results, err := service.NewSearchService(a.notes).Search(ctx, service.SearchRequest{
				Query: strings.Join(args, " "),
				Limit: limit,
			})
			if err != nil {
				return err
			}

			if format == "json" {
				out := make([]searchOutput, 0, len(results))
				for _, r := range results {
					out = append(out, searchOutput(r))
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results found")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"#", "ID", "Created", "Content"})
			for i, r := range results {
				t.AppendRow(table.Row{i + 1, r.ID, deref(r.CreatedAt), snippet(r.Content, snippetWidth)})
			}
			t.SetStyle(table.StyleRounded)
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of results (default 10, max 100)")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// snippet flattens whitespace and truncates to width runes.
func snippet(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
