package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/LeJamon/goAssetLock/internal/config"
	"github.com/LeJamon/goAssetLock/internal/logging"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debug      bool
	quiet      bool
	rpcURL     string

	cfg    *config.Config
	logger *logging.DefaultLogger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assetlockd",
	Short: "goAssetLock - time-boxed asset custody escrow",
	Long: `goAssetLock runs a custody escrow: a creator locks native value for a
beneficiary, swaps it into a destination token through the node's AMM pools,
and the beneficiary may withdraw the proceeds at any time. Once the
withdrawal window has passed without a withdrawal the creator can reclaim
them.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
	rootCmd.PersistentFlags().StringVar(&rpcURL, "rpc", "", "server URL for client commands (default: from config)")
}

// initConfig loads the configuration and sets up logging.
func initConfig() error {
	loaded, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	logger = logging.NewDefaultLogger()
	logger.SetDebug(debug)
	return nil
}

// serverURL is where client commands send their calls.
func serverURL() string {
	if rpcURL != "" {
		return rpcURL
	}
	return cfg.Server.URL()
}
