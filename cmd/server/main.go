package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Uzinex/Boost-v1.0/internal/config"
	"github.com/Uzinex/Boost-v1.0/internal/handler"
	"github.com/Uzinex/Boost-v1.0/internal/repository"
	"github.com/Uzinex/Boost-v1.0/internal/service"
	"github.com/Uzinex/Boost-v1.0/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Refuse to serve with a broken backing store.
	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repo.Ping(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("Database is unreachable: %v", err)
	}
	cancelPing()

	if err := repository.Migrate(cfg.Database.DSN()); err != nil {
		log.Fatalf("Failed to prepare database schema: %v", err)
	}

	// Without a bot token the service still sells orders (unverified), but
	// task completion is rejected outright.
	var oracle service.MembershipOracle
	if cfg.Telegram.BotToken == "" {
		log.Println("TELEGRAM_BOT_TOKEN не задан. Проверка подписок будет недоступна.")
	} else {
		warmupCtx, cancelWarmup := context.WithTimeout(context.Background(), 15*time.Second)
		tg, err := telegram.NewOracle(warmupCtx, cfg.Telegram.BotToken)
		cancelWarmup()
		if err != nil {
			log.Printf("Не удалось инициализировать Telegram бота: %v", err)
		} else {
			oracle = tg
			log.Printf("Telegram bot @%s initialized", tg.BotUsername())
		}
	}

	userSvc := service.NewUserService(repo)
	orderSvc := service.NewOrderService(repo, oracle)
	activitySvc := service.NewActivityService(repo)

	h := handler.New(cfg, userSvc, orderSvc, activitySvc)

	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handler.RegisterRoutes(app, h)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		_ = app.Shutdown()
	}()

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
