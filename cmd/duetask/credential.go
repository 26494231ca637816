package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/duetask/internal/credential"
)

func credentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage API keys stored in the OS keyring",
	}
	cmd.AddCommand(credentialSetCmd())
	cmd.AddCommand(credentialDeleteCmd())
	return cmd
}

func credentialSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set onesignal|supabase",
		Short:     "Store an API key read from stdin",
		Args:      cobra.ExactArgs(1),
		ValidArgs: credential.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credential.Lookup(args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%s key: ", args[0])
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			value := strings.TrimSpace(line)
			if value == "" {
				if err != nil {
					return fmt.Errorf("reading key: %w", err)
				}
				return fmt.Errorf("empty key")
			}

			if err := credential.NewSystemStore().Set(key, value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", key)
			return nil
		},
	}
}

func credentialDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete onesignal|supabase",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := credential.Lookup(args[0])
			if err != nil {
				return err
			}
			if err := credential.NewSystemStore().Delete(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", key)
			return nil
		},
	}
}
