package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"aihub/aiservice/internal/answer"
	"aihub/aiservice/internal/app"
)

var askFlags struct {
	userID     string
	documentID string
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from one document",
	Long: `Run the answer pipeline scoped to a user's document and print the answer
with its sources as JSON.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		var res *answer.Result
		err := withDeps(cmd.Context(), func(deps *app.Dependencies) error {
			svc, closers, err := app.NewAnswerService(cfg, deps.VectorStore, deps.Settings)
			if err != nil {
				return err
			}
			defer func() {
				for _, c := range closers {
					c.Close()
				}
			}()

			res, err = svc.GetAnswer(cmd.Context(), askFlags.userID, askFlags.documentID, question)
			return err
		})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	askCmd.Flags().StringVar(&askFlags.userID, "user-id", "", "owning user id")
	askCmd.Flags().StringVar(&askFlags.documentID, "document-id", "", "document to search")
	_ = askCmd.MarkFlagRequired("user-id")
	_ = askCmd.MarkFlagRequired("document-id")

	rootCmd.AddCommand(askCmd)
}
