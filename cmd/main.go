package main

import (
	"net/http"
	"os"

	"ModMate/agent"
	"ModMate/api"
	"ModMate/config"
	"ModMate/db"
	"ModMate/gateway"
	"ModMate/ledger"
	"ModMate/messages"
	"ModMate/moderation"
	"ModMate/scheduler"
	"ModMate/summarizer"
	"ModMate/utils"

	"github.com/inconshreveable/log15"
)

var logger = log15.New("module", "main")

func main() {
	config.LoadEnv()
	db.Init()
	utils.InitRedis()

	led := ledger.New(config.Getenv("DB_DIR", "db-data"))
	led.Load()
	store := messages.NewStore()

	gw := gateway.NewDiscord(os.Getenv("DISCORD_TOKEN"))
	oracle := agent.NewClient(os.Getenv("MISTRAL_API_KEY"), os.Getenv("MISTRAL_MODEL"))

	dispatcher := moderation.NewDispatcher(gw, led, db.NewArchive())
	moderator := moderation.New(store, led, oracle, dispatcher)
	summ := summarizer.New(oracle)

	if _, err := scheduler.Start(os.Getenv("DIGEST_CRON"), gw, summ); err != nil {
		logger.Crit("failed to start scheduler", "err", err)
		os.Exit(1)
	}

	handler := api.NewHandler(moderator, store, gw, summ)
	router := SetupRouter(handler)

	port := config.Getenv("PORT", "8080")
	logger.Info("server running", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		logger.Crit("server failed", "err", err)
		os.Exit(1)
	}
}
