// Package cmd contains the wallet app commands.
package cmd

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veloxchain/velox/foundation/logger"
)

var (
	accountName string
	accountPath string
	compressed  bool
	verbose     bool
)

const keyExtension = ".key"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.key", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zwallet/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().BoolVarP(&compressed, "compressed", "c", true, "Derive compressed public keys and addresses.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log command diagnostics.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Velox protocol wallet",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// getLogger constructs the command logger. Without --verbose the
// commands stay quiet on everything but their result output.
func getLogger() *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}

	zlog, err := logger.New("WALLET")
	if err != nil {
		log.Fatal(err)
	}

	return zlog
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}
