package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	tgcontroller "github.com/dch2rfzbnb-cmyk/nano-crm/internal/controllers/telegram"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/repositories"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/services"
	"github.com/dch2rfzbnb-cmyk/nano-crm/internal/worker"
	"github.com/dch2rfzbnb-cmyk/nano-crm/pkg/config"
	"github.com/dch2rfzbnb-cmyk/nano-crm/pkg/database/postgresql"
	applogger "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/logger"
	tgclient "github.com/dch2rfzbnb-cmyk/nano-crm/pkg/telegram"
)

// messageSender адаптирует телеграм-клиент под интерфейс воркера.
type messageSender struct {
	tg tgclient.ServiceInterface
}

func (s messageSender) Send(ctx context.Context, chatID int64, text string) error {
	_, err := s.tg.SendMessage(ctx, chatID, text)
	return err
}

func main() {
	// .env подхватывается внутри config.New.
	cfg := config.New()
	logger := applogger.NewLogger(cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// База и миграции.
	pool, err := postgresql.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	if err := postgresql.Migrate(pool); err != nil {
		logger.Fatal("не удалось применить миграции", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
	}
	defer redisClient.Close()

	// Репозитории.
	orderRepo := repositories.NewOrderRepository(pool, logger)
	settingsRepo := repositories.NewSettingsRepository(pool, logger)
	authRepo := repositories.NewAuthRepository(pool, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// Сервисы.
	orderService := services.NewOrderService(orderRepo, cacheRepo, logger)
	reportService := services.NewReportService(orderRepo, settingsRepo, logger)
	authService := services.NewAuthService(authRepo, cfg.Telegram.Pin, logger)

	tg := tgclient.NewService(cfg.Telegram.BotToken)

	controller := tgcontroller.NewController(orderService, reportService, authService, cacheRepo, tg, logger)

	// HTTP-сервер вебхука.
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("паника в HTTP-обработчике",
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)))
			return err
		},
	}))

	e.POST("/telegram/webhook", controller.HandleWebhook)
	e.GET("/healthz", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	// Фоновые воркеры.
	var wg sync.WaitGroup

	reminderWorker := worker.NewReminderWorker(orderRepo, messageSender{tg: tg},
		tgcontroller.FormatReminderCard, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		reminderWorker.Run(ctx)
	}()

	dailyWorker := worker.NewDailyReportWorker(reportService, tg,
		cfg.Report.DailyHour, cfg.Report.DailyMinute, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		dailyWorker.Run(ctx)
	}()

	go func() {
		logger.Info("HTTP-сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP-сервер не запустился", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("получен сигнал остановки")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка остановки HTTP-сервера", zap.Error(err))
	}

	wg.Wait()
	logger.Info("бот остановлен")
}
