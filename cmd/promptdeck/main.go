// Command promptdeck is the unified CLI: serve, migrate, and ad-hoc
// enrichment commands.
package main

import "github.com/promptdeck/promptdeck/internal/interfaces/cli"

func main() {
	cli.Execute()
}
