package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/carbridge/internal/bridge/feed"
	"github.com/autopeer-io/carbridge/internal/bridge/fields"
	"github.com/autopeer-io/carbridge/internal/bridge/payload"
)

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a status payload and print the extracted fields",
		Long: `Parse reads one status payload from file, or from stdin when no file or "-"
is given, and prints every field the bridge would extract from it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}
			text, ok := feed.Decode(data)
			if !ok {
				return errors.New("payload is not valid UTF-8")
			}

			fmt.Fprintln(cmd.OutOrStdout(), recordTable(payload.Parse(text)))
			return nil
		},
	}
}

func recordTable(rec payload.Record) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 50
	table.AddRow("FIELD", "NAME", "VALUE", "UNIT")
	for _, key := range rec.Keys() {
		d, _ := fields.Lookup(key)
		table.AddRow(key, d.Name, formatValue(rec[key]), d.Unit)
	}
	return table
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "<unparsable>"
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
