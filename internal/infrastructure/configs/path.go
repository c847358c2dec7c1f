package configs

import (
	"flag"
	"log"
	"os"

	"github.com/walklabs/chat-service/internal/infrastructure/env"
)

func DetermineConfigPath() string {
	var configPath string

	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	if configPath == "" {
		configPath = env.GetString("CHAT_CONFIG", "")
	}

	if configPath == "" {
		candidates := []string{
			"./config.yaml",
			"./config.yml",
			"../../config.yaml", // keep for local dev
			"/etc/chat-service/config.yaml",
			"/app/config.yaml", // common in Docker
		}

		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath == "" {
		// Defaults plus environment overrides are a complete configuration,
		// so a missing file is not fatal.
		log.Println("no config file found, using defaults and environment (use --config or CHAT_CONFIG)")
	}

	return configPath
}
