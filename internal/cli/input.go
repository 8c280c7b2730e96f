package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// readBasket returns the basket text from the file named by args[0], or from
// stdin when no file (or "-") is given.
func readBasket(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read basket from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read basket: %w", err)
	}
	return string(data), nil
}

// basketFromStdin reports whether the basket consumed stdin, leaving nothing
// for interactive prompts
func basketFromStdin(args []string) bool {
	return len(args) == 0 || args[0] == "-"
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
