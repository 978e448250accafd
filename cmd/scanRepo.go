package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scanRepoCmd represents the scan_repo command
var scanRepoCmd = &cobra.Command{
	Use:   "scan_repo",
	Short: "Audits a single repository for npm supply chain risk signals",
	Long: `Audits a single repository for npm supply chain risk signals
Example: depsentry scan_repo owner/repo --token "$GH_TOKEN"

A repository named explicitly is audited even if it is archived or a fork.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Token = viper.GetString("token")
		ctx := cmd.Context()
		scanner, err := GetScanner(ctx)
		if err != nil {
			return err
		}

		repo := args[0]

		if _, err := scanner.ScanRepo(ctx, repo); err != nil {
			return fmt.Errorf("failed to scan repo %s: %w", repo, err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanRepoCmd)

	scanRepoCmd.Flags().StringVarP(&Token, "token", "t", "", "SCM access token (env: GH_TOKEN)")

	viper.BindPFlag("token", scanRepoCmd.Flags().Lookup("token"))
	viper.BindEnv("token", "GH_TOKEN", "GL_TOKEN")
}
