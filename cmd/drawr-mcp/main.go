// Command drawr-mcp serves the drawing editor to MCP clients over stdio.
package main

import (
	"fmt"
	"os"

	"drawr/internal/app"
)

func main() {
	if err := app.ServeMCP(); err != nil {
		fmt.Fprintln(os.Stderr, "drawr-mcp:", err)
		os.Exit(1)
	}
}
