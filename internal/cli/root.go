package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentctl/agentctl/pkg/config"
	"github.com/agentctl/agentctl/pkg/directory"
	"github.com/agentctl/agentctl/pkg/logging"
	"github.com/agentctl/agentctl/pkg/metrics"
	"github.com/agentctl/agentctl/pkg/setup"
	"github.com/agentctl/agentctl/pkg/store"
	"github.com/agentctl/agentctl/pkg/tasks"
)

var (
	// Version information (set by build)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// Global flags
	cfgFile    string
	verbose    bool
	jsonOutput bool

	// Global state built in PersistentPreRunE
	appConfig  *config.Config
	appLogger  logging.Logger
	appMetrics *metrics.Metrics
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "agentctl",
	Short: "AGENTCTL - agent automation manager",
	Long: `AGENTCTL manages named automation agents, each holding an ordered
bundle of typed tasks, and runs those tasks against external
capabilities while recording results.

Manage agents:
  agentctl agent create notifier --description "daily mail digest"
  agentctl agent list
  agentctl agent run <id>

Query LLM providers:
  agentctl providers list
  agentctl chat --provider openai "summarize this inbox"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appConfig = cfg

		logCfg := logging.Config{
			Level:  logging.ParseLevel(cfg.Logging.Level),
			Format: cfg.Logging.Format,
		}
		if verbose {
			logCfg.Level = logging.DebugLevel
		}
		appLogger = logging.NewZapLogger(logCfg)
		appMetrics = metrics.New()
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.agentctl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("agentctl %s\n", Version)
		fmt.Printf("Build: %s\n", BuildTime)
		fmt.Printf("Commit: %s\n", GitCommit)
	},
}

// openDirectory builds the store-backed agent directory and the task
// registry shared by the agent commands.
func openDirectory(ctx context.Context) (*directory.Directory, store.Store, *tasks.Registry, error) {
	s, err := store.Open(ctx, appConfig.Store)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	registry, err := setup.InitializeTaskRegistry(ctx, appConfig.Mail, appLogger)
	if err != nil {
		return nil, nil, nil, err
	}

	return directory.New(s, registry, appLogger), s, registry, nil
}
