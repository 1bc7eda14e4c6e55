package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	ParseCmdLiteral = "parse"
	ParseCmdExample = `# Validate a descriptor given inline
hubctl parse "HostName=myhub.azure-devices.net;SharedAccessKeyName=iothubowner;SharedAccessKey=<KEY>"

# Validate the descriptor of a configured profile
hubctl parse --profile prod

# Read the descriptor from stdin and print JSON
echo "$HUB_CONNECTION_STRING" | hubctl parse - -o json`
)

func newParseCmd(a *app) *cobra.Command {
	var (
		output      string
		showSecrets bool
	)
	cmd := &cobra.Command{
		Use:     ParseCmdLiteral + " [descriptor|-]",
		Short:   "Validate a connection descriptor",
		Long:    "Parse and validate a hub connection descriptor and print the identity it describes. Secrets are masked unless --" + FlagShowSecrets + " is given.",
		Example: ParseCmdExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			ctx, descriptor, err := a.descriptor(cmd.Context(), args)
			if err != nil {
				return err
			}
			r, err := a.svc.ParseDescriptor(ctx, descriptor)
			if err != nil {
				return err
			}
			if showSecrets {
				r.Descriptor = r.Connection().String()
			}

			if output == OutputJSON {
				return writeJSON(a.stdout, r)
			}
			w := a.stdout
			fmt.Fprintf(w, "Host name:   %s\n", r.HostName)
			fmt.Fprintf(w, "Hub name:    %s\n", r.HubName)
			fmt.Fprintf(w, "Key name:    %s\n", r.KeyName)
			fmt.Fprintf(w, "Auth kind:   %s\n", r.AuthKind)
			fmt.Fprintf(w, "User string: %s\n", r.UserString)
			fmt.Fprintf(w, "Descriptor:  %s\n", r.Descriptor)
			fmt.Fprintf(w, "Request id:  %s\n", r.RequestID)
			return nil
		},
	}
	addStringFlag(cmd, FlagOutput, &output, OutputText, "Output format (text or json)")
	addBoolFlag(cmd, FlagShowSecrets, &showSecrets, false, "Print the descriptor with its key or signature")
	return cmd
}
