package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

var (
	typeName   string
	descriptor string
)

var decodeCmd = &cobra.Command{
	Use:   "decode [hex]",
	Short: "Decode 0x-prefixed wire bytes into a structured value",
	Args:  cobra.ExactArgs(1),
	Run:   decodeRun,
}

func init() {
	decodeCmd.Flags().StringVarP(&typeName, "type", "t", schema.TypeTransaction, "Protocol type name of the bytes.")
	decodeCmd.Flags().StringVarP(&descriptor, "descriptor", "d", "", "Path to a JSON type-descriptor file to merge over the built-in types.")
	rootCmd.AddCommand(decodeCmd)
}

func decodeRun(cmd *cobra.Command, args []string) {
	zlog := getLogger()
	defer zlog.Sync()

	data, err := hexutil.Decode(args[0])
	if err != nil {
		log.Fatal(err)
	}

	reg := schema.Builtin()
	if descriptor != "" {
		types, enums, err := schema.LoadDescriptorFile(descriptor)
		if err != nil {
			log.Fatal(err)
		}
		if reg, err = reg.Extend(types, enums); err != nil {
			log.Fatal(err)
		}
	}

	zlog.Infow("decode", "type", typeName, "bytes", len(data), "descriptor", descriptor)

	value, err := codec.Decode(data, typeName, reg)
	if err != nil {
		log.Fatal(err)
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(string(out))
}
