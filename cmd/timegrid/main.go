package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daily-timegrid/internal/bot"
	"daily-timegrid/internal/config"
	"daily-timegrid/internal/repository"
	"daily-timegrid/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db)

	categorySvc := service.NewCategoryService(categoryRepo)
	timeLogSvc := service.NewTimeLogService(timeLogRepo, categoryRepo)
	reportSvc := service.NewReportService(service.NewStatsService(timeLogRepo))
	exportSvc := service.NewExportService(categoryRepo, timeLogRepo, time.Now)

	if cfg.SeedDefaultCategories {
		seeded, err := categorySvc.SeedDefaults(ctx)
		if err != nil {
			log.Fatalf("seed categories: %v", err)
		}
		if seeded {
			log.Println("[info] default categories created")
		}
	}

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, categorySvc, timeLogSvc, reportSvc, exportSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
		jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("report: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule reports: %v", err)
	}
	if cfg.ClockRefresh > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.ClockRefresh, telegramBot.RefreshClocks); err != nil {
			log.Fatalf("schedule clock refresh: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Println("Time grid bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
