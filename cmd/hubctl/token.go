package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hublink.dev/internal/connstr"
	"hublink.dev/internal/inspect"
)

const (
	TokenCmdLiteral = "token"
	TokenCmdExample = `# Sign a one hour service token for the default profile
hubctl token --ttl 1h

# Sign from explicit credentials instead of a descriptor
hubctl token --host myhub.azure-devices.net --key-name iothubowner --key <KEY>`
)

func newTokenCmd(a *app) *cobra.Command {
	var (
		output  string
		ttl     time.Duration
		host    string
		keyName string
		key     string
	)
	cmd := &cobra.Command{
		Use:     TokenCmdLiteral + " [descriptor|-]",
		Short:   "Print a shared access signature for a hub",
		Long:    "Sign a service shared access signature from a key-based descriptor, or print the signature a token-based descriptor already carries.",
		Example: TokenCmdExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			if ttl < 0 {
				return fmt.Errorf("%w: --%s must not be negative", errUsage, FlagTTL)
			}
			if ttl == 0 {
				ttl = a.cfg.Token.TTL
			}

			var (
				r   inspect.DescriptorReport
				err error
			)
			ctx := cmd.Context()
			if host != "" {
				if len(args) > 0 {
					return fmt.Errorf("%w: --%s and a descriptor argument are mutually exclusive", errUsage, FlagHost)
				}
				r, err = a.svc.Build(ctx, host, connstr.SharedAccessKey{PolicyName: keyName, Key: key})
			} else {
				var descriptor string
				ctx, descriptor, err = a.descriptor(ctx, args)
				if err != nil {
					return err
				}
				r, err = a.svc.ParseDescriptor(ctx, descriptor)
			}
			if err != nil {
				return err
			}

			tr, err := a.svc.IssueToken(ctx, r.Connection(), ttl)
			if err != nil {
				return err
			}
			if output == OutputJSON {
				return writeJSON(a.stdout, tr)
			}
			fmt.Fprintln(a.stdout, tr.Token)
			return nil
		},
	}
	addStringFlag(cmd, FlagOutput, &output, OutputText, "Output format (text or json)")
	addDurationFlag(cmd, FlagTTL, &ttl, 0, "Token lifetime (defaults to token.ttl from config)")
	addStringFlag(cmd, FlagHost, &host, "", "Hub host name; sign from --key-name and --key instead of a descriptor")
	addStringFlag(cmd, FlagKeyName, &keyName, "", "Shared access policy name, used with --host")
	addStringFlag(cmd, FlagKey, &key, "", "Base64 shared access key, used with --host")
	return cmd
}
