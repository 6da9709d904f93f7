package main

import (
	"log"

	"github.com/m3rciful/cnybot/core/buildinfo"
	corecmd "github.com/m3rciful/cnybot/core/cmd"
	"github.com/m3rciful/cnybot/internal/app"
)

func main() {
	log.Printf("cnybot %s", buildinfo.String())
	err := corecmd.Run(corecmd.Options{
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg.(*app.Config))
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}
