package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ttokjang/backend/internal/basket"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/flow"
	"github.com/ttokjang/backend/internal/resolution"
)

func newResolveCmd(a *app) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "resolve [file|-]",
		Short: "Match basket items against the product catalog",
		Long: `Sends the basket to the match-candidates endpoint and prints one row per item.
With --interactive, ambiguous items are offered for selection and the
rewritten basket is printed instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive && basketFromStdin(args) {
				return errors.New("--interactive reads answers from stdin; pass the basket as a file")
			}

			text, err := readBasket(cmd, args)
			if err != nil {
				return err
			}
			items := basket.ParseBasket(text)
			if len(items) == 0 {
				return flow.ErrEmptyBasket
			}

			rows, err := a.api.MatchCandidates(cmd.Context(), items)
			if err != nil {
				return err
			}

			if !interactive {
				return writeJSON(cmd.OutOrStdout(), domain.MatchCandidatesResponse{Items: rows})
			}

			var selection domain.Selection
			if unresolved := resolution.Unresolved(rows); len(unresolved) > 0 {
				chooser := NewTerminalChooser(cmd.InOrStdin(), cmd.ErrOrStderr())
				selection, err = chooser.Choose(cmd.Context(), unresolved)
				if err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), basket.FormatBasket(resolution.Apply(items, rows, selection)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for ambiguous items and print the rewritten basket")
	return cmd
}
