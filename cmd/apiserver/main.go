// Command apiserver runs the enrichment API server directly, equivalent to
// "promptdeck serve".  Kept as a separate binary for deployments that only
// ever run the server.
package main

import (
	"os"

	"github.com/promptdeck/promptdeck/internal/interfaces/cli"
)

func main() {
	os.Args = append(os.Args[:1], append([]string{"serve"}, os.Args[1:]...)...)
	cli.Execute()
}
