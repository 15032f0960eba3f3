package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/veloxchain/velox/foundation/protocol/keys"
)

var wifCmd = &cobra.Command{
	Use:   "wif",
	Short: "Export the account as a WIF string",
	Run:   wifRun,
}

var wifImportCmd = &cobra.Command{
	Use:   "import [wif]",
	Short: "Import a WIF string into the account file",
	Args:  cobra.ExactArgs(1),
	Run:   wifImportRun,
}

func init() {
	wifCmd.AddCommand(wifImportCmd)
	rootCmd.AddCommand(wifCmd)
}

func wifRun(cmd *cobra.Command, args []string) {
	km, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(km.WIF())
}

func wifImportRun(cmd *cobra.Command, args []string) {
	zlog := getLogger()
	defer zlog.Sync()

	km, err := keys.NewFromWIF(args[0])
	if err != nil {
		log.Fatal(err)
	}

	if err := savePrivateKey(km); err != nil {
		log.Fatal(err)
	}

	zlog.Infow("wif import", "path", getPrivateKeyPath(), "compressed", km.Compressed())

	fmt.Println(km.Address())
}
