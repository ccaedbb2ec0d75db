package cmd

import (
	"errors"
	"io"
	"os"
	"time"

	"cosmossdk.io/log"
	confixcmd "cosmossdk.io/tools/confix/cmd"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/config"
	"github.com/cosmos/cosmos-sdk/client/debug"
	"github.com/cosmos/cosmos-sdk/client/keys"
	"github.com/cosmos/cosmos-sdk/client/pruning"
	"github.com/cosmos/cosmos-sdk/client/snapshot"
	"github.com/cosmos/cosmos-sdk/server"
	serverconfig "github.com/cosmos/cosmos-sdk/server/config"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	authcli "github.com/cosmos/cosmos-sdk/x/auth/client/cli"
	"github.com/cosmos/cosmos-sdk/x/auth/types"
	"github.com/cosmos/cosmos-sdk/x/crisis"
	genutilcli "github.com/cosmos/cosmos-sdk/x/genutil/client/cli"
	"github.com/spf13/cobra"

	tmcfg "github.com/cometbft/cometbft/config"

	"github.com/openalpha/crowdchain/app"
	crowdfundcli "github.com/openalpha/crowdchain/x/crowdfund/client/cli"
)

// NewRootCmd creates a new root command for crowdchaind
func NewRootCmd() *cobra.Command {
	tempApp := app.NewApp(
		log.NewNopLogger(),
		dbm.NewMemDB(),
		nil,
		false,
		nil,
	)
	encodingConfig := app.MakeEncodingConfig()

	initClientCtx := client.Context{}.
		WithCodec(encodingConfig.Codec).
		WithInterfaceRegistry(encodingConfig.InterfaceRegistry).
		WithTxConfig(encodingConfig.TxConfig).
		WithLegacyAmino(encodingConfig.Amino).
		WithInput(os.Stdin).
		WithAccountRetriever(types.AccountRetriever{}).
		WithHomeDir(app.DefaultNodeHome).
		WithViper("CROWDCHAIN")

	rootCmd := &cobra.Command{
		Use:   "crowdchaind",
		Short: "Crowdchain - on-chain crowdfunding ledger",
		Long: `Crowdchain is a crowdfunding ledger built on Cosmos SDK.
Pools collect contributions in module custody, split platform fees at
donation time, and release funds to creators under a signer policy.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			initClientCtx = initClientCtx.WithCmdContext(cmd.Context())
			initClientCtx, err := client.ReadPersistentCommandFlags(initClientCtx, cmd.Flags())
			if err != nil {
				return err
			}

			initClientCtx, err = config.ReadFromClientConfig(initClientCtx)
			if err != nil {
				return err
			}

			if err := client.SetCmdClientContextHandler(initClientCtx, cmd); err != nil {
				return err
			}

			customAppTemplate, customAppConfig := initAppConfig()
			customCMTConfig := initCometBFTConfig()

			return server.InterceptConfigsPreRunHandler(cmd, customAppTemplate, customAppConfig, customCMTConfig)
		},
	}

	initRootCmd(rootCmd, encodingConfig, tempApp.BasicModuleManager)

	return rootCmd
}

func initRootCmd(rootCmd *cobra.Command, encodingConfig app.EncodingConfig, basicManager module.BasicManager) {
	rootCmd.AddCommand(
		genutilcli.InitCmd(basicManager, app.DefaultNodeHome),
		debug.Cmd(),
		confixcmd.ConfigCommand(),
		pruning.Cmd(newApp, app.DefaultNodeHome),
		snapshot.Cmd(newApp),
	)

	server.AddCommands(rootCmd, app.DefaultNodeHome, newApp, appExport, addModuleInitFlags)

	// Add genesis commands
	genesisCmd := genutilcli.Commands(encodingConfig.TxConfig, basicManager, app.DefaultNodeHome)
	rootCmd.AddCommand(genesisCmd)

	// Add query commands
	queryCmd := &cobra.Command{
		Use:                        "query",
		Aliases:                    []string{"q"},
		Short:                      "Querying subcommands",
		DisableFlagParsing:         false,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	queryCmd.AddCommand(
		authcli.QueryTxsByEventsCmd(),
		authcli.QueryTxCmd(),
		crowdfundcli.GetQueryCmd(),
	)
	rootCmd.AddCommand(queryCmd)

	// Add transaction commands
	txCmd := &cobra.Command{
		Use:                        "tx",
		Short:                      "Transactions subcommands",
		DisableFlagParsing:         false,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}
	txCmd.AddCommand(
		authcli.GetSignCommand(),
		authcli.GetBroadcastCommand(),
		crowdfundcli.GetTxCmd(),
	)
	rootCmd.AddCommand(txCmd)

	// Add keybase commands
	rootCmd.AddCommand(
		keys.Commands(),
		VersionCmd(),
	)
}

func addModuleInitFlags(startCmd *cobra.Command) {
	crisis.AddModuleInitFlags(startCmd)
}

// newApp creates a new Cosmos SDK app
func newApp(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	appOpts servertypes.AppOptions,
) servertypes.Application {
	baseappOptions := server.DefaultBaseappOptions(appOpts)

	return app.NewApp(
		logger,
		db,
		traceStore,
		true,
		appOpts,
		baseappOptions...,
	)
}

// appExport creates a new app (optionally at a given height) and exports state
func appExport(
	logger log.Logger,
	db dbm.DB,
	traceStore io.Writer,
	height int64,
	forZeroHeight bool,
	jailAllowedAddrs []string,
	appOpts servertypes.AppOptions,
	modulesToExport []string,
) (servertypes.ExportedApp, error) {
	// Create app without loading latest version
	crowdchainApp := app.NewApp(
		logger,
		db,
		traceStore,
		false,
		appOpts,
	)

	if height != -1 {
		if err := crowdchainApp.LoadHeight(height); err != nil {
			return servertypes.ExportedApp{}, err
		}
	}

	return servertypes.ExportedApp{}, errors.New("export not implemented")
}

// initAppConfig returns custom app config template and config
func initAppConfig() (string, interface{}) {
	type CustomAppConfig struct {
		serverconfig.Config
	}

	customAppConfig := CustomAppConfig{
		Config: *serverconfig.DefaultConfig(),
	}

	customAppTemplate := serverconfig.DefaultConfigTemplate

	return customAppTemplate, customAppConfig
}

// initCometBFTConfig tunes CometBFT for short donation-to-confirmation times
func initCometBFTConfig() *tmcfg.Config {
	cfg := tmcfg.DefaultConfig()

	// Contribution UX is dominated by block time; keep commit timeouts short
	cfg.Consensus.TimeoutPropose = 1 * time.Second
	cfg.Consensus.TimeoutPrevote = 500 * time.Millisecond
	cfg.Consensus.TimeoutPrecommit = 500 * time.Millisecond
	cfg.Consensus.TimeoutCommit = 1 * time.Second

	// Campaign launches produce contribution bursts; size the mempool for them
	cfg.Mempool.Size = 5000
	cfg.Mempool.MaxTxsBytes = 52428800 // 50 MB
	cfg.Mempool.Recheck = true

	return cfg
}

// VersionCmd returns a command to print the version
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("Crowdchain v0.1.0")
		},
	}
}
