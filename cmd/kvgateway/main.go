// Command kvgateway serves Redis strings, counters and lists over HTTP.
package main

import (
	"os"

	"github.com/rwool/kvgateway/cmd/service"
)

func main() {
	if err := service.NewCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
