package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/veloxchain/velox/foundation/protocol/codec"
	"github.com/veloxchain/velox/foundation/protocol/schema"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [json]",
	Short: "Encode a JSON structured value into 0x-prefixed wire bytes",
	Args:  cobra.MaximumNArgs(1),
	Run:   encodeRun,
}

var valueFile string

func init() {
	encodeCmd.Flags().StringVarP(&typeName, "type", "t", schema.TypeTransaction, "Protocol type name of the value.")
	encodeCmd.Flags().StringVarP(&descriptor, "descriptor", "d", "", "Path to a JSON type-descriptor file to merge over the built-in types.")
	encodeCmd.Flags().StringVarP(&valueFile, "file", "f", "", "Read the JSON value from a file instead of the argument.")
	rootCmd.AddCommand(encodeCmd)
}

func encodeRun(cmd *cobra.Command, args []string) {
	zlog := getLogger()
	defer zlog.Sync()

	var content []byte
	var err error

	switch {
	case valueFile != "":
		if content, err = os.ReadFile(valueFile); err != nil {
			log.Fatal(err)
		}
	case len(args) == 1:
		content = []byte(args[0])
	default:
		log.Fatal("provide a JSON value argument or --file")
	}

	var value map[string]any
	if err := json.Unmarshal(content, &value); err != nil {
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

	zlog.Infow("encode", "type", typeName, "descriptor", descriptor, "file", valueFile)

	data, err := codec.Encode(value, typeName, reg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hexutil.Encode(data))
}
