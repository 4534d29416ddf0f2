// Command sensorfor downloads SensorFor cloud measurements into SQLite.
package main

import (
	"os"

	"github.com/sensorfor/downloader/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
