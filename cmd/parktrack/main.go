// Command parktrack manages the parktrack location database.
package main

import (
	"os"

	"github.com/Ev19Coding/parktrack/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
