// Command docqa runs the document question answering service.
package main

import (
	"os"

	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
