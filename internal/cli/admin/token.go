package admin

import (
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/finder/internal/config"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/spf13/cobra"
)

func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage admin tokens",
	}

	cmd.AddCommand(tokenGenerateCmd())

	return cmd
}

func tokenGenerateCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an admin bearer token",
		Long:  "Generate a random admin token and print the FINDER_ADMIN_TOKENS entry that binds it to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := service.GenerateAPIToken()
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			entry := fmt.Sprintf("%s:%d", token, userID)
			outputFormat, _ := cmd.Flags().GetString("output")
			if outputFormat == "json" {
				jsonBytes, _ := json.MarshalIndent(map[string]any{
					"token":   token,
					"user_id": userID,
					"env":     config.EnvPrefix + "_ADMIN_TOKENS",
					"entry":   entry,
				}, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Token: %s\n", token)
			fmt.Fprintf(cmd.OutOrStdout(), "Add to %s_ADMIN_TOKENS: %s\n", config.EnvPrefix, entry)
			fmt.Fprintln(cmd.OutOrStdout(), "Store the token now; it cannot be recovered.")
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id the token acts as")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
