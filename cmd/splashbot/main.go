package main

import (
	"log"

	"splashbot/bot"
	coreconfig "splashbot/core/config"
	corecmd "splashbot/core/cmd"
	"splashbot/core/logger"
)

type configCarrier struct {
	cfg *coreconfig.Config
}

func (c configCarrier) CoreConfig() *coreconfig.Config { return c.cfg }

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			if err := logger.InitLogger(cfg); err != nil {
				return nil, err
			}
			return configCarrier{cfg: cfg}, nil
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return bot.New(carrier.CoreConfig())
		},
	})
	if err != nil {
		log.Fatalf("splashbot: %v", err)
	}
}
