package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var threads int

// scanUserCmd represents the scan_user command
var scanUserCmd = &cobra.Command{
	Use:   "scan_user [username]",
	Short: "Audits a user's repositories for npm supply chain risk signals",
	Long: `Audits a user's repositories for npm supply chain risk signals
Example: depsentry scan_user someuser --token "$GH_TOKEN"

Audit all projects of a user on a self-hosted GitLab instance:
depsentry scan_user someuser --token "$GL_TOKEN" --scm gitlab --scm-base-url https://gitlab.example.com

Archived repositories and forks are skipped. The aggregated findings are
written to scan-report.json in the working directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Token = viper.GetString("token")
		ctx := cmd.Context()
		scanner, err := GetScanner(ctx)
		if err != nil {
			return err
		}

		user := config.DefaultUser
		if len(args) == 1 {
			user = args[0]
		}

		if _, err := scanner.ScanUser(ctx, user, &threads); err != nil {
			return fmt.Errorf("failed to scan user %s: %w", user, err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanUserCmd)

	scanUserCmd.Flags().StringVarP(&Token, "token", "t", "", "SCM access token (env: GH_TOKEN)")
	scanUserCmd.Flags().IntVarP(&threads, "threads", "j", 1, "Parallelization factor for fetching and auditing manifests")

	viper.BindPFlag("token", scanUserCmd.Flags().Lookup("token"))
	viper.BindEnv("token", "GH_TOKEN", "GL_TOKEN")
}
