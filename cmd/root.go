package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/spf13/cobra"

	"github.com/depsentry/depsentry/audit"
	"github.com/depsentry/depsentry/blocklist"
	"github.com/depsentry/depsentry/formatters/json"
	"github.com/depsentry/depsentry/formatters/noop"
	"github.com/depsentry/depsentry/formatters/pretty"
	"github.com/depsentry/depsentry/formatters/sarif"
	"github.com/depsentry/depsentry/models"
	"github.com/depsentry/depsentry/providers/scm"
	"github.com/depsentry/depsentry/providers/scm/domain"
	"github.com/depsentry/depsentry/scan"
)

var Format string
var Verbose bool
var ScmProvider string
var ScmBaseURL scm_domain.ScmBaseDomain
var (
	Version string
	Commit  string
	Date    string
)
var Token string
var cfgFile string
var blocklistFiles []string
var config *models.Config

const (
	exitCodeErr       = 1
	exitCodeInterrupt = 2
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "depsentry",
	Short: "An npm supply chain auditor for source hosting fleets",
	Long: `An npm supply chain auditor for source hosting fleets.
depsentry enumerates a user's repositories, reads each package.json through
the hosting API and flags risky install lifecycle scripts and dependencies
on known compromised packages.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		if Verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
		output := zerolog.ConsoleWriter{Out: os.Stderr}
		output.FormatLevel = func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		}
		log.Logger = log.Output(output)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalChan)
		cancel()
	}()

	go func() {
		select {
		case <-signalChan: // first signal, cancel context
			cancel()
		case <-ctx.Done():
			return
		}
		<-signalChan // second signal, hard exit
		os.Exit(exitCodeInterrupt)
	}()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(exitCodeErr)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .depsentry.yml in the current directory)")
	rootCmd.PersistentFlags().StringVarP(&Format, "format", "f", "pretty", "Output format (pretty, json, sarif)")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&ScmProvider, "scm", "s", "github", "SCM platform (github, gitlab)")
	rootCmd.PersistentFlags().VarP(&ScmBaseURL, "scm-base-url", "b", "Base URL of the self-hosted SCM instance (optional)")
	rootCmd.PersistentFlags().StringSliceVar(&blocklistFiles, "blocklist", nil, "Additional blocklist YAML files merged into the embedded registry")
}

func initConfig() {
	config = models.DefaultConfig()

	viper.AutomaticEnv()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".depsentry")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return
		} else {
			log.Error().Err(err).Msg("Can't read config")
			os.Exit(1)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		log.Error().Err(err).Msg("Unable to unmarshal config")
		os.Exit(1)
	}
	config.ApplyDefaults()
}

func GetFormatter() scan.Formatter {
	switch Format {
	case "pretty":
		return pretty.NewFormat(os.Stdout)
	case "json":
		return json.NewFormat(os.Stdout)
	case "sarif":
		return sarif.NewFormat(os.Stdout, Version)
	case "noop":
		return &noop.Format{}
	}
	return pretty.NewFormat(os.Stdout)
}

func GetScanner(ctx context.Context) (*scan.Scanner, error) {
	scmClient, err := scm.NewScmClient(ctx, ScmProvider, ScmBaseURL.String(), Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create SCM client: %w", err)
	}

	registry, err := buildRegistry()
	if err != nil {
		return nil, err
	}

	auditor := audit.NewAuditor(registry)

	return scan.NewScanner(scmClient, auditor, GetFormatter(), config), nil
}

// buildRegistry merges the embedded blocklist with any extra files from the
// config and the --blocklist flag.
func buildRegistry() (*blocklist.Registry, error) {
	entries, err := blocklist.DefaultEntries()
	if err != nil {
		return nil, err
	}

	extraFiles := append([]string{}, config.Blocklists...)
	extraFiles = append(extraFiles, blocklistFiles...)
	for _, path := range extraFiles {
		extra, err := blocklist.LoadEntriesFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, extra...)
	}

	return blocklist.NewRegistry(entries), nil
}
