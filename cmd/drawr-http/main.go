// Command drawr-http serves stored drawings over REST.
package main

import (
	"fmt"
	"os"

	"drawr/internal/app"
)

func main() {
	if err := app.ServeHTTP(); err != nil {
		fmt.Fprintln(os.Stderr, "drawr-http:", err)
		os.Exit(1)
	}
}
