package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/veloxchain/velox/foundation/protocol/signature"
)

var signCmd = &cobra.Command{
	Use:   "sign [digest]",
	Short: "Sign a 0x-prefixed 32-byte digest with the account key",
	Args:  cobra.ExactArgs(1),
	Run:   signRun,
}

var recoverCmd = &cobra.Command{
	Use:   "recover [digest] [signature]",
	Short: "Recover the signer address from a digest and a compact signature",
	Args:  cobra.ExactArgs(2),
	Run:   recoverRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(recoverCmd)
}

func signRun(cmd *cobra.Command, args []string) {
	zlog := getLogger()
	defer zlog.Sync()

	digest, err := hexutil.Decode(args[0])
	if err != nil {
		log.Fatal(err)
	}

	km, err := loadPrivateKey()
	if err != nil {
		log.Fatal(err)
	}

	zlog.Infow("sign", "account", getPrivateKeyPath(), "digest", args[0])

	sig, err := signature.Sign(km, digest)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hexutil.Encode(sig))
}

func recoverRun(cmd *cobra.Command, args []string) {
	zlog := getLogger()
	defer zlog.Sync()

	digest, err := hexutil.Decode(args[0])
	if err != nil {
		log.Fatal(err)
	}

	zlog.Infow("recover", "digest", args[0], "compressed", compressed)

	sig, err := hexutil.Decode(args[1])
	if err != nil {
		log.Fatal(err)
	}

	addr, err := signature.RecoverAddress(digest, sig, compressed)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(addr)
}
