package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/crowdchain/x/crowdfund/types"
)

const flagGateway = "gateway"

// GetQueryCmd returns the cli query commands for the crowdfund module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the crowdfund module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryPool(),
		CmdQueryPools(),
		CmdQueryLeaderboard(),
	)

	return cmd
}

// CmdQueryPool returns the command to query one pool via the read gateway
func CmdQueryPool() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool [pool-id]",
		Short: "Query a funding pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, _ := cmd.Flags().GetString(flagGateway)
			return printGateway(fmt.Sprintf("%s/v1/pools/%s", gateway, args[0]))
		},
	}

	cmd.Flags().String(flagGateway, "http://localhost:8080", "Read gateway base URL")
	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPools returns the command to list pools via the read gateway
func CmdQueryPools() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List funding pools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, _ := cmd.Flags().GetString(flagGateway)
			return printGateway(gateway + "/v1/pools")
		},
	}

	cmd.Flags().String(flagGateway, "http://localhost:8080", "Read gateway base URL")
	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryLeaderboard returns the command to show a pool's top contributors
func CmdQueryLeaderboard() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard [pool-id]",
		Short: "Show a pool's top contributors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gateway, _ := cmd.Flags().GetString(flagGateway)
			return printGateway(fmt.Sprintf("%s/v1/pools/%s/leaderboard", gateway, args[0]))
		},
	}

	cmd.Flags().String(flagGateway, "http://localhost:8080", "Read gateway base URL")
	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

func printGateway(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %s: %s", resp.Status, body)
	}

	var pretty json.RawMessage
	if err := json.Unmarshal(body, &pretty); err != nil {
		return err
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}
