package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	hexdumpOffset   int64
	hexdumpLength   int64
	hexdumpAnnotate bool
)

var hexdumpCmd = &cobra.Command{
	Use:   "hexdump <file>",
	Short: "Hex dump a file, optionally annotating wasmc object section boundaries",
	Args:  cobra.ExactArgs(1),
	RunE:  runHexdump,
}

func init() {
	RootCmd.AddCommand(hexdumpCmd)

	hexdumpCmd.Flags().Int64Var(&hexdumpOffset, "offset", 0, "starting byte offset")
	hexdumpCmd.Flags().Int64Var(&hexdumpLength, "length", -1, "number of bytes to dump (default: to end of file)")
	hexdumpCmd.Flags().BoolVar(&hexdumpAnnotate, "annotate", true, "print the meta header's section boundaries before the dump")
}

func runHexdump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if hexdumpAnnotate {
		if offsets, err := readObjectOffsets(data); err == nil {
			fmt.Fprintf(out, "meta:    [0, %d)\n", offsets.Code)
			fmt.Fprintf(out, "code:    [%d, %d)\n", offsets.Code, offsets.Data)
			fmt.Fprintf(out, "data:    [%d, %d)\n", offsets.Data, offsets.Symbols)
			fmt.Fprintf(out, "symbols: [%d, %d)\n", offsets.Symbols, offsets.Debug)
			fmt.Fprintf(out, "debug:   [%d, %d)\n", offsets.Debug, offsets.End)
			fmt.Fprintln(out)
		}
	}

	start := hexdumpOffset
	if start < 0 || start > int64(len(data)) {
		start = int64(len(data))
	}
	end := int64(len(data))
	if hexdumpLength >= 0 && start+hexdumpLength < end {
		end = start + hexdumpLength
	}

	return writeHexdump(out, data[start:end], start)
}

func writeHexdump(out interface{ Write([]byte) (int, error) }, b []byte, baseOffset int64) error {
	for i := 0; i < len(b); i += 16 {
		end := i + 16
		if end > len(b) {
			end = len(b)
		}
		row := b[i:end]

		line := fmt.Sprintf("%08x  ", baseOffset+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(row) {
				line += fmt.Sprintf("%02x ", row[j])
			} else {
				line += "   "
			}
			if j == 7 {
				line += " "
			}
		}
		line += " |"
		for _, c := range row {
			if c >= 0x20 && c < 0x7f {
				line += string(c)
			} else {
				line += "."
			}
		}
		line += "|\n"

		if _, err := out.Write([]byte(line)); err != nil {
			return err
		}
	}
	return nil
}
