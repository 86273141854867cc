package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sahithiv25/InsightMiner/internal/app"
)

// NewValidateCommand creates the validate command
func NewValidateCommand(container *app.Container) *cobra.Command {
	var file string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [sql]",
		Short: "Check a SQL statement against the safety rules and schema allowlist",
		Long:  "Check a SQL statement against the safety rules and schema allowlist.\nRead from --file, or from stdin when the argument is -.",
		RunE: func(cmd *cobra.Command, args []string) error {
			statement, err := readStatement(cmd.InOrStdin(), args, file)
			if err != nil {
				return err
			}
			outcome := container.Guardrail.Validate(statement)
			if asJSON {
				if err := json.NewEncoder(cmd.OutOrStdout()).Encode(outcome); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), outcome.String())
			}
			if !outcome.Accepted {
				return fmt.Errorf("statement rejected: %s", outcome.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the statement from a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the outcome as JSON")
	return cmd
}

func readStatement(stdin io.Reader, args []string, file string) (string, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) == 1 && args[0] == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		return "", errors.New(ErrSQLRequired)
	}
}
