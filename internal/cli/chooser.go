package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/flow"
	"github.com/ttokjang/backend/internal/resolution"
)

// TerminalChooser asks on a terminal which candidate each ambiguous item means.
// An empty answer takes the top candidate, "q" or end of input cancels.
type TerminalChooser struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalChooser prompts on out and reads answers from in
func NewTerminalChooser(in io.Reader, out io.Writer) *TerminalChooser {
	return &TerminalChooser{in: bufio.NewReader(in), out: out}
}

// Choose implements flow.Chooser
func (c *TerminalChooser) Choose(ctx context.Context, unresolved []domain.MatchRow) (domain.Selection, error) {
	selection := resolution.DefaultSelection(unresolved)

	for _, row := range unresolved {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fmt.Fprintf(c.out, "\n%q matches more than one product:\n", row.ItemName)
		for i, candidate := range row.Candidates {
			fmt.Fprintf(c.out, "  %d) %s\n", i+1, describeCandidate(candidate))
		}

		index, err := c.ask(len(row.Candidates))
		if err != nil {
			return nil, err
		}
		selection[row.ItemName] = index
	}

	return selection, nil
}

func (c *TerminalChooser) ask(n int) (int, error) {
	for {
		fmt.Fprintf(c.out, "Choose 1-%d [1], q to cancel: ", n)

		line, readErr := c.in.ReadString('\n')
		answer := strings.TrimSpace(line)
		if readErr != nil && answer == "" {
			return 0, flow.ErrSelectionCancelled
		}

		if answer == "" {
			return 0, nil
		}
		if strings.EqualFold(answer, "q") {
			return 0, flow.ErrSelectionCancelled
		}
		if k, err := strconv.Atoi(answer); err == nil && k >= 1 && k <= n {
			return k - 1, nil
		}

		fmt.Fprintf(c.out, "Please enter a number between 1 and %d.\n", n)
		if readErr != nil {
			return 0, flow.ErrSelectionCancelled
		}
	}
}

func describeCandidate(c domain.MatchCandidate) string {
	parts := []string{c.NormalizedName}
	if c.Brand != "" {
		parts = append(parts, c.Brand)
	}
	if c.SizeDisplay != "" {
		parts = append(parts, c.SizeDisplay)
	}
	return fmt.Sprintf("%s (score %.2f)", strings.Join(parts, " / "), c.Score)
}
