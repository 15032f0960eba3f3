package cmd

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/veloxchain/velox/foundation/protocol/keys"
)

var seed string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key pair",
	Run:   generateRun,
}

func init() {
	generateCmd.Flags().StringVarP(&seed, "seed", "s", "", "Derive the key deterministically from a seed string.")
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) {
	zlog := getLogger()
	defer zlog.Sync()

	var km *keys.KeyMaterial
	var err error

	if seed != "" {
		km, err = keys.NewFromSeed(seed, compressed)
	} else {
		km, err = keys.Generate(compressed)
	}
	if err != nil {
		log.Fatal(err)
	}

	if err := savePrivateKey(km); err != nil {
		log.Fatal(err)
	}

	zlog.Infow("generate", "path", getPrivateKeyPath(), "seeded", seed != "", "compressed", compressed)

	fmt.Println(km.Address())
}

// savePrivateKey writes the hex-encoded scalar to the account file.
func savePrivateKey(km *keys.KeyMaterial) error {
	path := getPrivateKeyPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(hex.EncodeToString(km.Bytes())), 0o600)
}

// loadPrivateKey reads the hex-encoded scalar back from the account file.
func loadPrivateKey() (*keys.KeyMaterial, error) {
	content, err := os.ReadFile(getPrivateKeyPath())
	if err != nil {
		return nil, err
	}

	return keys.NewFromHex(string(content), compressed)
}
