// Command wishbot runs the wishlist Telegram bot.
package main

import (
	"log"

	corecmd "github.com/m3rciful/wishbot/core/cmd"
	"github.com/m3rciful/wishbot/internal/bot"
	"github.com/m3rciful/wishbot/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: bot.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
