package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/models"
	projectservice "github.com/thenoetrevino/taskroll/internal/services/project"
	"gopkg.in/yaml.v3"
)

// ImportCmd returns the project import subcommand
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import project documents from JSON or YAML",
		Long: `Import one or more project documents into a collection.

The input may be a single document or a list of documents, in JSON or YAML.
Use "-" to read from stdin. Every document is checked before any is written,
so a failing batch leaves the collection unchanged. Tasks that fail
validation are skipped and reported as warnings.`,
		Example: `  taskroll project import roadmap.yaml
  cat export.json | taskroll project import - --collection initiatives --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cli.AddCollectionFlag(cmd)
	cmd.Flags().Bool("dry-run", false, "Validate the input without writing anything")
	cmd.Flags().String("format", "", "Input format: json or yaml (default: from file extension, else sniffed)")
	cli.AddOutputFlags(cmd, "Minimal output (imported project IDs only)")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")

	data, err := readInput(cmd, args[0])
	if err != nil {
		return formatter.Fail(cli.UsageError(err), "")
	}
	docs, err := DecodeDocuments(data, detectFormat(format, args[0], data))
	if err != nil {
		return formatter.Fail(err, "Check that the input is a project document or a list of them")
	}

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return formatter.Fail(err, "")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	collection, err := cliInstance.CollectionFrom(cmd)
	if err != nil {
		return formatter.Fail(err, "")
	}

	summary, err := cliInstance.App.ProjectService.ImportProjects(ctx, projectservice.ImportRequest{
		Collection: collection,
		Documents:  docs,
		DryRun:     dryRun,
	})
	if err != nil {
		return formatter.Fail(err, "Nothing was imported")
	}

	if formatter.Quiet {
		for _, id := range summary.Imported {
			fmt.Println(id)
		}
		return nil
	}

	if formatter.JSON {
		warnings := make([]map[string]string, 0, len(summary.Warnings))
		for _, w := range summary.Warnings {
			warnings = append(warnings, map[string]string{"path": w.PathString(), "message": w.Error()})
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success":    true,
			"collection": collection,
			"dry_run":    dryRun,
			"imported":   summary.Imported,
			"tasks":      summary.Tasks,
			"warnings":   warnings,
		})
	}

	verb := "Imported"
	if dryRun {
		verb = "Would import"
	}
	fmt.Printf("%s %s %d project(s) with %d task(s) into %s\n",
		styles.SuccessStyle.Render("✓"), verb, len(summary.Imported), summary.Tasks, collection)
	for _, w := range summary.Warnings {
		fmt.Printf("  %s %s\n", styles.WarningStyle.Render("⚠"), w.Error())
	}
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// detectFormat picks json or yaml from the flag, the file extension, or
// the first non-space byte of the input
func detectFormat(flag, path string, data []byte) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "json"
	}
	return "yaml"
}

// DecodeDocuments reads a document or a list of documents
func DecodeDocuments(data []byte, format string) ([]models.RawRecord, error) {
	var v any
	switch format {
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %w", docstore.ErrInvalidDocument, err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %w", docstore.ErrInvalidDocument, err)
		}
	default:
		return nil, cli.UsageError(fmt.Errorf("unknown format %q", format))
	}

	var docs []models.RawRecord
	switch val := v.(type) {
	case map[string]any:
		docs = append(docs, val)
	case []any:
		for i, item := range val {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: document %d is not an object", docstore.ErrInvalidDocument, i)
			}
			docs = append(docs, rec)
		}
	}
	if len(docs) == 0 {
		return nil, projectservice.ErrNoDocuments
	}
	return docs, nil
}
