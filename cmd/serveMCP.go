package cmd

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/depsentry/depsentry/audit"
	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/results"
)

var serveMcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Starts the depsentry MCP server",
	Long: `Starts the depsentry MCP server.
The server communicates via JSON-RPC over stdio and provides these tools:
- scan_user: Audit all repositories of a user
- scan_repo: Audit a specific repository
- audit_manifest: Audit a raw package.json document

Example: depsentry serve-mcp --token "$GH_TOKEN"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Token = viper.GetString("token")

		// Findings go back over the wire; keep stdout free of tables.
		Format = "noop"

		s := server.NewMCPServer("depsentry", Version)

		scanUserTool := mcp.NewTool(
			"scan_user",
			mcp.WithDescription("Audits all repositories of a user for npm supply chain risk signals."),
			mcp.WithString("user", mcp.Required(), mcp.Description("Username whose repositories to audit.")),
			mcp.WithNumber("threads", mcp.Description("Parallelization factor for fetching manifests. Defaults to 1.")),
		)

		s.AddTool(scanUserTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			user, err := request.RequireString("user")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			threads := int(request.GetFloat("threads", 1))

			scanner, err := GetScanner(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			report, err := scanner.ScanUser(ctx, user, &threads)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return findingsResult(report.Findings)
		})

		scanRepoTool := mcp.NewTool(
			"scan_repo",
			mcp.WithDescription("Audits a single repository for npm supply chain risk signals."),
			mcp.WithString("repo", mcp.Required(), mcp.Description("The repository to audit (i.e. owner/repo).")),
		)

		s.AddTool(scanRepoTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			repo, err := request.RequireString("repo")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			scanner, err := GetScanner(ctx)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			report, err := scanner.ScanRepo(ctx, repo)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return findingsResult(report.Findings)
		})

		auditManifestTool := mcp.NewTool(
			"audit_manifest",
			mcp.WithDescription("Audits a raw package.json document for risky install lifecycle scripts and known compromised dependencies. Requires no SCM access."),
			mcp.WithString("content", mcp.Required(), mcp.Description("The complete package.json content as a string.")),
		)

		s.AddTool(auditManifestTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			content, err := request.RequireString("content")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			manifest, err := models.ParsePackageManifest([]byte(content))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			registry, err := buildRegistry()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}

			findings := audit.NewAuditor(registry).Audit("manifest", manifest)
			return findingsResult(findings)
		})

		return server.ServeStdio(s)
	},
}

func findingsResult(findings []results.Finding) (*mcp.CallToolResult, error) {
	if findings == nil {
		findings = []results.Finding{}
	}
	jsonData, err := json.Marshal(findings)
	if err != nil {
		return mcp.NewToolResultError("Failed to marshal findings to JSON: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func init() {
	rootCmd.AddCommand(serveMcpCmd)

	serveMcpCmd.Flags().StringVarP(&Token, "token", "t", "", "SCM access token (env: GH_TOKEN)")

	viper.BindPFlag("token", serveMcpCmd.Flags().Lookup("token"))
	viper.BindEnv("token", "GH_TOKEN", "GL_TOKEN")
}
