package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	createBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/create_booking"
	getBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking"
	getBookingHistoryHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/get_booking_history"
	listBookingsHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/list_bookings"
	runExpirySweepHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/run_expiry_sweep"
	transitionBookingHandler "github.com/m04kA/SMC-RentalService/internal/api/handlers/transition_booking"
	"github.com/m04kA/SMC-RentalService/internal/api/middleware"
	"github.com/m04kA/SMC-RentalService/internal/config"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	resourceRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
	notifyServiceClient "github.com/m04kA/SMC-RentalService/internal/integrations/notifyservice"
	pricingServiceClient "github.com/m04kA/SMC-RentalService/internal/integrations/pricingservice"
	bookingsService "github.com/m04kA/SMC-RentalService/internal/service/bookings"
	sweeperService "github.com/m04kA/SMC-RentalService/internal/service/sweeper"
	createBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
	transitionBookingUC "github.com/m04kA/SMC-RentalService/internal/usecase/transition_booking"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-RentalService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	pricingClient := pricingServiceClient.NewClient(
		cfg.PricingService.URL,
		time.Duration(cfg.PricingService.Timeout)*time.Second,
		log,
	)
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (PricingService=%s timeout=%ds, NotifyService=%s timeout=%ds)",
		cfg.PricingService.URL, cfg.PricingService.Timeout, cfg.NotifyService.URL, cfg.NotifyService.Timeout)

	// Инициализируем репозитории и транзакционный менеджер (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		resourceRepository *resourceRepo.Repository
		txMgr              transitionBookingUC.TransactionManager
		simpleTxMgr        createBookingUC.TransactionManager
		transitionMetrics  transitionBookingUC.Metrics = transitionBookingUC.NoopMetrics{}
		sweepMetrics       sweeperService.Metrics      = sweeperService.NoopMetrics{}
	)

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		resourceRepository = resourceRepo.NewRepository(wrappedDB)
		mgr := txmanager.NewTransactionManager(wrappedDB)
		txMgr = mgr
		simpleTxMgr = mgr
		transitionMetrics = metricsCollector
		sweepMetrics = metricsCollector
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		resourceRepository = resourceRepo.NewRepository(db)
		mgr := simpletxmanager.NewTransactionManager(db)
		txMgr = mgr
		simpleTxMgr = mgr
	}

	// Инициализируем сервисы и use cases
	bookingSvc := bookingsService.NewService(bookingRepository, log)

	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		resourceRepository,
		pricingClient,
		notifyClient,
		simpleTxMgr,
		log,
	)

	transitionBookingUseCase := transitionBookingUC.NewUseCase(
		bookingRepository,
		resourceRepository,
		notifyClient,
		txMgr,
		time.Duration(cfg.Booking.PaymentHoldMinutes)*time.Minute,
		transitionMetrics,
		log,
	)

	sweeperSvc := sweeperService.NewService(
		bookingRepository,
		transitionBookingUseCase,
		sweepMetrics,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	transitionBooking := transitionBookingHandler.NewHandler(transitionBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	listBookings := listBookingsHandler.NewHandler(bookingSvc, log)
	getBookingHistory := getBookingHistoryHandler.NewHandler(bookingSvc, log)
	runExpirySweep := runExpirySweepHandler.NewHandler(sweeperSvc, log)

	// Запускаем Expiry Sweeper по расписанию
	// Просроченные платёжные окна переживают рестарт: дедлайн лежит в данных,
	// очередной прогон подбирает всё, что истекло, пока сервис не работал
	cronRunner := cron.New()
	_, err = cronRunner.AddFunc(cfg.Booking.SweepSchedule, func() {
		if _, err := sweeperSvc.Run(context.Background()); err != nil {
			log.Error("Scheduled sweep failed: %v", err)
		}
	})
	if err != nil {
		log.Fatal("Failed to schedule expiry sweeper: %v", err)
	}
	cronRunner.Start()
	log.Info("Expiry sweeper scheduled: %q", cfg.Booking.SweepSchedule)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// INTERNAL ROUTES (для оператора и смежных сервисов)
	// ============================================================

	// Ручной запуск прогона свипера
	api.HandleFunc("/sweeps/expired", runExpirySweep.Handle).Methods(http.MethodPost)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// Создание заявки на бронирование
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Выборка бронирований участника
	protected.HandleFunc("/bookings", listBookings.Handle).Methods(http.MethodGet)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Переход жизненного цикла: approve, reject, pay, confirm_pickup, complete, cancel
	protected.HandleFunc("/bookings/{bookingId}/transition", transitionBooking.Handle).Methods(http.MethodPost)

	// Аудит-история переходов
	protected.HandleFunc("/bookings/{bookingId}/history", getBookingHistory.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем расписание свипера, дожидаемся текущего прогона
	cronCtx := cronRunner.Stop()
	<-cronCtx.Done()
	log.Info("Expiry sweeper stopped")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
