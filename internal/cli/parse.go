package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ttokjang/backend/internal/basket"
	"github.com/ttokjang/backend/internal/domain"
)

func newParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse a basket into structured items",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readBasket(cmd, args)
			if err != nil {
				return err
			}

			items := basket.ParseBasket(text)
			lines := basket.FormatLines(items)

			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), domain.ParseBasketResponse{Items: items, Lines: lines})
			case "lines":
				for _, line := range lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			default:
				return fmt.Errorf("unknown format %q (available: json, lines)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format. Available: json, lines")
	return cmd
}
