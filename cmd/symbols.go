package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/whylang/wasmc/pkg/utils"
	"github.com/whylang/wasmc/pkg/why/symtab"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols <object-file>",
	Short: "Dump the symbol table of an assembled object",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func init() {
	RootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	offsets, err := readObjectOffsets(data)
	if err != nil {
		return err
	}
	if offsets.Debug < offsets.Symbols || int(offsets.Debug) > len(data) {
		return fmt.Errorf("wasmc: symbol section offsets [%d, %d) out of range for a %d-byte file", offsets.Symbols, offsets.Debug, len(data))
	}

	entries, err := symtab.Decode(data[offsets.Symbols:offsets.Debug])
	if err != nil {
		return fmt.Errorf("decoding symbol table: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tADDRESS\tTYPE\tNAME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", utils.FormatUintHex(uint64(e.ID), 8), utils.FormatUintHex(e.Address, 16), e.Type, e.Name)
	}
	return w.Flush()
}
