package main

import "github.com/veloxchain/velox/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
