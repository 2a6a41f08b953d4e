package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whylang/wasmc/internal/diagnostics"
	"github.com/whylang/wasmc/internal/manifest"
	"github.com/whylang/wasmc/pkg/why/assembler"
	"github.com/whylang/wasmc/pkg/why/ast"
)

var (
	assembleOutputPath  string
	assembleLogFile     string
	assembleVerbose     bool
	assembleManifestDir string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <ast.json>",
	Short: "Assemble a parsed Why program AST into a binary object",
	Long: `Reads a JSON-encoded program AST (the shape of pkg/why/ast.Program) and
assembles it into the Why binary object format: meta header, code and
data sections, symbol table, and debug info.

wasmc does not parse Why source text itself; the AST is expected to
already have been produced by a separate front end.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssemble,
}

func init() {
	RootCmd.AddCommand(assembleCmd)

	assembleCmd.Flags().StringVarP(&assembleOutputPath, "output", "o", "", "output object file path (default: input path with .o extension)")
	assembleCmd.Flags().StringVar(&assembleLogFile, "log-file", "", "also write JSON diagnostics to this file")
	assembleCmd.Flags().BoolVarP(&assembleVerbose, "verbose", "v", false, "enable debug-level logging")
	assembleCmd.Flags().StringVar(&assembleManifestDir, "manifest-dir", ".", "directory to look for wasmc.yaml in")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := diagnostics.New(assembleLogFile, assembleVerbose)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	inputPath := args[0]
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	var program ast.Program
	if err := json.Unmarshal(raw, &program); err != nil {
		return fmt.Errorf("decoding AST from %s: %w", inputPath, err)
	}

	fallback, err := manifest.Load(assembleManifestDir)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	slog.Info("assembling", "input", inputPath)
	result, err := assembler.Assemble(&program, fallback)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	for _, sym := range result.UnknownSymbols {
		slog.Warn("unresolved symbol left as hash id in output object", "symbol", sym)
	}

	outputPath := assembleOutputPath
	if outputPath == "" {
		outputPath = defaultObjectPath(inputPath)
	}
	if err := os.WriteFile(outputPath, result.Binary, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	slog.Info("wrote object", "path", outputPath, "bytes", len(result.Binary), "relocations", len(result.Relocations))
	fmt.Println(outputPath)
	return nil
}

func defaultObjectPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".o"
}
