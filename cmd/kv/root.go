package kv

import (
	"os"

	"github.com/ValentinKolb/respkv/cmd/util"
	"github.com/ValentinKolb/respkv/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client

	// KeyValueCommands sends a single command to the server
	KeyValueCommands = &cobra.Command{
		Use:   "kv [command] [args...]",
		Short: "Send a command to a respkv server",
		Long: `Send a single command to a respkv server and print the reply.

Examples:
  respkv kv SET greeting hello
  respkv kv GET greeting
  respkv kv -- LRANGE mylist 0 -1   (use -- before arguments starting with a dash)`,
		Args:              cobra.MinimumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: setupKVClient,
		PersistentPostRun: closeKVClient,
		RunE:              runCommand,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the KV command
	util.SetupRPCClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient initializes the RPC client
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	rpcClient, err = util.NewClient()
	return err
}

func closeKVClient(_ *cobra.Command, _ []string) {
	if rpcClient != nil {
		_ = rpcClient.Close()
	}
}

// runCommand sends the arguments as one command
func runCommand(_ *cobra.Command, args []string) error {
	ctx, cancel := util.RequestContext()
	defer cancel()

	reply, err := rpcClient.Do(ctx, args...)
	return util.PrintReply(os.Stdout, reply, err)
}
