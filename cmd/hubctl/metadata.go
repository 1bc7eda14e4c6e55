package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"hublink.dev/internal/inspect"
)

const (
	MetadataCmdLiteral = "metadata"
	MetadataCmdExample = `# List the write metadata of every property in a twin document
hubctl metadata twin.json

# Pretty print, reading YAML from stdin
cat twin.yaml | hubctl metadata - --format yaml --pretty`
)

func newMetadataCmd(a *app) *cobra.Command {
	var (
		output string
		format string
		pretty bool
	)
	cmd := &cobra.Command{
		Use:     MetadataCmdLiteral + " <file|->",
		Short:   "Extract twin metadata from a property document",
		Long:    "Read a JSON or YAML twin property document and print the $lastUpdated metadata found at the root and at every nested property.",
		Example: MetadataCmdExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			f, err := inspect.ParseFormat(format)
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(a.stdin)
			} else {
				if f == inspect.FormatAuto {
					f = inspect.FormatForPath(args[0])
				}
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}

			doc, err := inspect.DecodeDocument(data, f)
			if err != nil {
				return err
			}
			r, err := a.svc.ExtractMetadata(cmd.Context(), doc)
			if err != nil {
				return err
			}

			if output == OutputJSON {
				return writeJSON(a.stdout, r)
			}
			if len(r.Entries) == 0 {
				fmt.Fprintln(a.stdout, "No metadata found")
				return nil
			}
			for _, e := range r.Entries {
				if pretty {
					fmt.Fprintf(a.stdout, "%s:\n%s\n", e.Path, e.Metadata.String())
					continue
				}
				compact, err := json.Marshal(e.Metadata)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s\t%s\n", e.Path, compact)
			}
			return nil
		},
	}
	addStringFlag(cmd, FlagOutput, &output, OutputText, "Output format (text or json)")
	addStringFlag(cmd, FlagFormat, &format, "", "Document format (json, yaml); guessed from the file when empty")
	addBoolFlag(cmd, FlagPretty, &pretty, false, "Indent each metadata record")
	return cmd
}
