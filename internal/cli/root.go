package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ibkr-trader/internal/audit"
	"ibkr-trader/internal/chain"
	"ibkr-trader/internal/config"
	"ibkr-trader/internal/gateway"
	"ibkr-trader/internal/logging"
	"ibkr-trader/internal/marketdata"
	"ibkr-trader/internal/session"
)

// Version information
const Version = "0.1.0"

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Session *session.Session
	Fetcher *marketdata.Fetcher
	Builder *chain.Builder
	Audit   *audit.Recorder
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Audit.Enabled {
		recorder, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to open audit journal, events will not be recorded")
		} else {
			app.Audit = recorder
		}
	}

	factory := func() gateway.Transport {
		return gateway.NewClientPortal(cfg.Gateway.Host, cfg.Gateway.Port,
			cfg.Gateway.ClientID, cfg.Gateway.Timeout, logger)
	}
	var auditor session.Auditor
	if app.Audit != nil {
		auditor = app.Audit
	}
	app.Session = session.New(factory, cfg, logger, auditor)
	app.Fetcher = marketdata.NewFetcher(app.Session, cfg.MarketData, logger)
	app.Builder = chain.NewBuilder(app.Session, app.Fetcher, cfg.Chain, logger)

	rootCmd := &cobra.Command{
		Use:   "ibkr-trader",
		Short: "IBKR Trader - resilient brokerage gateway client",
		Long: `IBKR Trader is a command-line client for the Interactive Brokers gateway.

It maintains a resilient session with automatic bounded reconnection and
exposes portfolio, market data, order and option chain operations.

Use 'ibkr-trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = app.Session.Disconnect()
			if app.Audit != nil {
				_ = app.Audit.Close()
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/ibkr-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addStatusCommands(rootCmd, app)
	addAccountCommands(rootCmd, app)
	addMarketDataCommands(rootCmd, app)
	addOrderCommands(rootCmd, app)
	addChainCommands(rootCmd, app)
	addUtilityCommands(rootCmd, app)

	return rootCmd
}
