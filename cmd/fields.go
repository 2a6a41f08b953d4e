package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whylang/wasmc/pkg/utils"
	"github.com/whylang/wasmc/pkg/why/encoding"
)

var fieldsCmd = &cobra.Command{
	Use:       "fields <r|i|j>",
	Short:     "Draw the bit layout of an instruction format",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"r", "i", "j"},
	RunE:      runFields,
}

func init() {
	RootCmd.AddCommand(fieldsCmd)
}

func runFields(cmd *cobra.Command, args []string) error {
	var layout []encoding.Field
	switch args[0] {
	case "r":
		layout = encoding.RLayout()
	case "i":
		layout = encoding.ILayout()
	case "j":
		layout = encoding.JLayout()
	}

	frameFields := utils.Map(layout, func(f encoding.Field) utils.AsciiFrameField {
		return utils.AsciiFrameField{Name: f.Name, Begin: f.Begin, Width: f.Width}
	})

	diagram, err := utils.AsciiFrame(frameFields, 64, "b", utils.AsciiFrameUnitLayout_LeftToRight, 0)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), diagram)
	return nil
}
