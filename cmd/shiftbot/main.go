package main

import (
	"log"

	corecmd "github.com/parkops/shiftbot/core/cmd"
	"github.com/parkops/shiftbot/internal/bot"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return bot.LoadConfig(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			appCfg, ok := cfg.(*bot.Config)
			if !ok {
				log.Fatalf("unexpected config type %T", cfg)
			}
			return bot.New(appCfg)
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
