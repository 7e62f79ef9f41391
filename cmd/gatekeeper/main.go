package main

import (
	"log"

	"github.com/m3rciful/gatekeeper/bots/access/app"
	corecmd "github.com/m3rciful/gatekeeper/core/cmd"
)

func main() {
	if err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatalf("gatekeeper: %v", err)
	}
}
