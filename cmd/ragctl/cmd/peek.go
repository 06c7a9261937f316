package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"aihub/aiservice/internal/app"
	"aihub/aiservice/internal/document"
)

var (
	peekLimit int
	peekJSON  bool
)

var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Show a sample of indexed chunks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if peekLimit <= 0 || peekLimit > 100 {
			return fmt.Errorf("limit must be between 1 and 100, got %d", peekLimit)
		}

		var chunks []document.Chunk
		var total int
		err := withDeps(cmd.Context(), func(deps *app.Dependencies) error {
			var err error
			if chunks, err = deps.VectorStore.List(cmd.Context(), peekLimit); err != nil {
				return err
			}
			total, err = deps.VectorStore.CountChunks(cmd.Context())
			return err
		})
		if err != nil {
			return err
		}
		return renderChunks(cmd, chunks, total)
	},
}

func renderChunks(cmd *cobra.Command, chunks []document.Chunk, total int) error {
	out := cmd.OutOrStdout()
	if peekJSON {
		return printJSON(out, chunks)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDOCUMENT\tUSER\tCONTENT")
	for _, c := range chunks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.ID,
			document.StringValue(c.Metadata, document.KeyDocumentID),
			document.StringValue(c.Metadata, document.KeyUserID),
			preview(c.Content, 60),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d chunks\n", len(chunks), total)
	return nil
}

func preview(s string, n int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\t' {
			r[i] = ' '
		}
	}
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func init() {
	peekCmd.Flags().IntVarP(&peekLimit, "limit", "n", 10, "number of chunks to show")
	peekCmd.Flags().BoolVar(&peekJSON, "json", false, "print chunks as JSON")

	rootCmd.AddCommand(peekCmd)
}
