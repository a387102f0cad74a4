package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/devhsu/srt-macro/internal/config"
	"github.com/devhsu/srt-macro/internal/constant"
	"github.com/devhsu/srt-macro/internal/database"
	"github.com/devhsu/srt-macro/internal/engine"
	"github.com/devhsu/srt-macro/internal/handler"
	"github.com/devhsu/srt-macro/internal/netfunnel"
	"github.com/devhsu/srt-macro/internal/queue"
	"github.com/devhsu/srt-macro/internal/repository"
	"github.com/devhsu/srt-macro/internal/router"
	"github.com/devhsu/srt-macro/internal/srt"
	"github.com/devhsu/srt-macro/internal/store"
)

func main() {
	// Best effort; production sets real environment variables.
	_ = godotenv.Load()

	cfg := config.Load()
	tables := constant.Default()

	// Redis backs the credential store and the rate limiter. Both
	// degrade when it is unreachable.
	rdb := config.NewRedisClient()
	var creds store.CredentialStore
	if rdb != nil {
		creds = store.NewRedisStore(rdb, "")
	} else {
		log.Println("redis unavailable; credentials held in memory only")
		creds = store.NewMemoryStore()
	}

	// MySQL-backed reservation history is optional.
	var history *repository.HistoryRepo
	if cfg.HistoryEnabled() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		history = repository.NewHistoryRepo(db)
	} else {
		log.Println("DB_HOST unset; reservation history disabled")
	}

	client := srt.NewClient(tables, cfg.OperatorCode)
	gate := netfunnel.New(nil, srt.UserAgent)
	eng := engine.New(gate, client, client)

	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg),
		SRT:         handler.NewSRTHandler(client, gate, creds, tables),
		Macro:       handler.NewMacroHandler(eng, history, tables),
		Reservation: handler.NewReservationHandler(history),
	}, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
