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

	claimWaitlistEntryHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/claim_waitlist_entry"
	createAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/create_appointment"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getAppointmentTypeHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment_type"
	getNextAvailableHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_next_available"
	getPatientAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_patient_appointments"
	getProviderHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_provider"
	getProviderAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_provider_appointments"
	getProviderAvailabilityHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_provider_availability"
	getProviderSchedulesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_provider_schedules"
	joinWaitlistHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/join_waitlist"
	listAppointmentTypesHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_appointment_types"
	listProvidersHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_providers"
	notifyWaitlistHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/notify_waitlist"
	recomputeWaitlistPriorityHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/recompute_waitlist_priority"
	searchAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/search_appointments"
	transitionAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/transition_appointment"
	updateAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/update_appointment"
	upsertProviderScheduleHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/upsert_provider_schedule"
	withdrawWaitlistEntryHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/withdraw_waitlist_entry"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/cache"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	appointmentTypeRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointmenttype"
	patientRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/patient"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
	waitlistRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/waitlist"
	insuranceServiceClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/insuranceservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	availabilityService "github.com/m04kA/SMC-AppointmentService/internal/service/availability"
	directoryService "github.com/m04kA/SMC-AppointmentService/internal/service/directory"
	schedulesService "github.com/m04kA/SMC-AppointmentService/internal/service/schedules"
	waitlistService "github.com/m04kA/SMC-AppointmentService/internal/service/waitlist"
	createAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
	rankOptionsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/rank_options"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/txmanager"
)

// eventPublisher общий интерфейс Kafka и лог-публикатора
type eventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
	Close() error
}

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

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	loc, err := cfg.Scheduling.Location()
	if err != nil {
		log.Fatal("Failed to load clinic timezone: %v", err)
	}

	// Инициализируем метрики (если включены)
	// nil *metrics.Metrics безопасен: все методы проверяют получателя
	var metricsCollector *metrics.Metrics
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

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil)
	}
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	appointmentTypeRepository := appointmentTypeRepo.NewRepository(wrappedDB)
	patientRepository := patientRepo.NewRepository(wrappedDB)
	providerRepository := providerRepo.NewRepository(wrappedDB)
	scheduleRepository := scheduleRepo.NewRepository(wrappedDB)
	waitlistRepository := waitlistRepo.NewRepository(wrappedDB)

	// Инициализируем интеграционных клиентов
	insuranceClient := insuranceServiceClient.NewClient(
		cfg.InsuranceService.URL,
		time.Duration(cfg.InsuranceService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (InsuranceService=%s timeout=%ds)",
		cfg.InsuranceService.URL, cfg.InsuranceService.Timeout)

	// Публикация доменных событий
	var publisher eventPublisher
	if cfg.Kafka.Enabled {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log, metricsCollector)
		log.Info("Kafka publisher initialized (brokers=%v, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		publisher = events.NewLogPublisher(log)
		log.Info("Kafka disabled, events are written to log")
	}

	// Доставка уведомлений
	var sender notification.Sender
	if cfg.Notifications.Enabled {
		sqsSender, err := notification.NewSQSSender(context.Background(), cfg.Notifications.Region, cfg.Notifications.SQSQueueURL)
		if err != nil {
			log.Fatal("Failed to initialize SQS sender: %v", err)
		}
		sender = sqsSender
		log.Info("SQS notifications enabled (queue=%s)", cfg.Notifications.SQSQueueURL)
	} else {
		sender = notification.NewLogSender(log)
		log.Info("Notifications disabled, messages are written to log")
	}
	dispatcher := notification.NewDispatcher(sender, notification.DispatcherConfig{
		Workers:     cfg.Notifications.Workers,
		BufferSize:  cfg.Notifications.BufferSize,
		MaxAttempts: cfg.Notifications.MaxAttempts,
	}, log, metricsCollector)
	dispatcher.Start()

	timers := scheduler.New(log)
	clock := &cache.RealTimeProvider{}
	slotCache := cache.New[[]domain.Slot](cfg.Scheduling.CacheTTL(), clock)
	typesCache := cache.New[[]*domain.AppointmentType](cfg.Scheduling.CacheTTL(), clock)
	auditRecorder := audit.NewRecorder(log.With("component", "audit"))

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(
		providerRepository,
		scheduleRepository,
		appointmentRepository,
		appointmentTypeRepository,
		slotCache,
		metricsCollector,
		clock,
		log,
		availabilityService.Config{
			Location:     loc,
			ForecastDays: cfg.Scheduling.ForecastDays,
		},
	)
	waitlistSvc := waitlistService.NewService(
		waitlistRepository,
		appointmentRepository,
		providerRepository,
		txMgr,
		timers,
		dispatcher,
		publisher,
		availabilitySvc,
		metricsCollector,
		clock,
		log,
		waitlistService.Config{
			Location:    loc,
			ClaimWindow: cfg.Scheduling.ClaimWindow(),
		},
	)
	appointmentsSvc := appointmentsService.NewService(
		appointmentRepository,
		txMgr,
		timers,
		dispatcher,
		publisher,
		availabilitySvc,
		waitlistSvc,
		auditRecorder,
		metricsCollector,
		clock,
		log,
		appointmentsService.Config{
			Location:           loc,
			CancellationNotice: cfg.Scheduling.CancellationNotice(),
			ReminderOffsets:    cfg.Scheduling.ReminderOffsets(),
		},
	)
	waitlistSvc.SetReminderScheduler(appointmentsSvc)
	directorySvc := directoryService.NewService(
		providerRepository,
		appointmentTypeRepository,
		typesCache,
		log,
	)
	schedulesSvc := schedulesService.NewService(
		scheduleRepository,
		providerRepository,
		availabilitySvc,
		publisher,
		clock,
		log,
	)

	// Инициализируем use cases
	createAppointmentUseCase := createAppointmentUC.NewUseCase(
		appointmentRepository,
		scheduleRepository,
		providerRepository,
		patientRepository,
		appointmentTypeRepository,
		insuranceClient,
		availabilitySvc,
		publisher,
		txMgr,
		clock,
		log,
		loc,
	)
	rankOptionsUseCase := rankOptionsUC.NewUseCase(
		providerRepository,
		patientRepository,
		scheduleRepository,
		appointmentRepository,
		appointmentTypeRepository,
		clock,
		log,
		rankOptionsUC.Config{
			Location:     loc,
			MaxProviders: cfg.Scheduling.MaxRankedProviders,
		},
	)

	// Восстанавливаем таймеры после рестарта
	restoreCtx, restoreCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if n, err := waitlistSvc.RestorePendingExpirations(restoreCtx); err != nil {
		log.Error("Failed to restore waitlist offer timers: %v", err)
	} else {
		log.Info("Restored %d waitlist offer timers", n)
	}
	if n, err := appointmentsSvc.RestoreReminders(restoreCtx); err != nil {
		log.Error("Failed to restore reminders: %v", err)
	} else {
		log.Info("Restored %d appointment reminders", n)
	}
	restoreCancel()

	// Инициализируем handlers
	listProviders := listProvidersHandler.NewHandler(directorySvc, log)
	getProvider := getProviderHandler.NewHandler(directorySvc, log)
	listAppointmentTypes := listAppointmentTypesHandler.NewHandler(directorySvc, log)
	getAppointmentType := getAppointmentTypeHandler.NewHandler(directorySvc, log)
	getProviderAvailability := getProviderAvailabilityHandler.NewHandler(availabilitySvc, log)
	getNextAvailable := getNextAvailableHandler.NewHandler(availabilitySvc, clock, log)
	getProviderSchedules := getProviderSchedulesHandler.NewHandler(schedulesSvc, log)
	upsertProviderSchedule := upsertProviderScheduleHandler.NewHandler(schedulesSvc, log)
	searchAppointments := searchAppointmentsHandler.NewHandler(rankOptionsUseCase, log)
	createAppointment := createAppointmentHandler.NewHandler(createAppointmentUseCase, log)
	getAppointment := getAppointmentHandler.NewHandler(appointmentsSvc, log)
	updateAppointment := updateAppointmentHandler.NewHandler(appointmentsSvc, log)
	transitionAppointment := transitionAppointmentHandler.NewHandler(appointmentsSvc, log)
	getPatientAppointments := getPatientAppointmentsHandler.NewHandler(appointmentsSvc, log)
	getProviderAppointments := getProviderAppointmentsHandler.NewHandler(appointmentsSvc, log)
	notifyWaitlist := notifyWaitlistHandler.NewHandler(waitlistSvc, log)
	joinWaitlist := joinWaitlistHandler.NewHandler(waitlistSvc, log)
	recomputeWaitlistPriority := recomputeWaitlistPriorityHandler.NewHandler(waitlistSvc, log)
	claimWaitlistEntry := claimWaitlistEntryHandler.NewHandler(waitlistSvc, log)
	withdrawWaitlistEntry := withdrawWaitlistEntryHandler.NewHandler(waitlistSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		log.Info("HTTP metrics middleware enabled")

		// Metrics endpoint (публичный, без аутентификации)
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			IdleTTL:           cfg.RateLimit.IdleTimeout(),
		})
		api.Use(limiter.Middleware)
		log.Info("Rate limiting enabled: %.1f req/s, burst %d", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Справочник врачей и типов приема
	api.HandleFunc("/providers", listProviders.Handle).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}", getProvider.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointment-types", listAppointmentTypes.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointment-types/{typeId}", getAppointmentType.Handle).Methods(http.MethodGet)

	// Свободные слоты врача на дату
	api.HandleFunc("/providers/{providerId}/availability", getProviderAvailability.Handle).Methods(http.MethodGet)

	// Ближайший свободный слот врача
	api.HandleFunc("/providers/{providerId}/next-available", getNextAvailable.Handle).Methods(http.MethodGet)

	// Расписание врача за период
	api.HandleFunc("/providers/{providerId}/schedules", getProviderSchedules.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Подбор и запись ---
	protected.HandleFunc("/appointments/search", searchAppointments.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments", createAppointment.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/appointments/{appointmentId}", getAppointment.Handle).Methods(http.MethodGet)

	// Причина визита и заметки пациента
	protected.HandleFunc("/appointments/{appointmentId}", updateAppointment.Handle).Methods(http.MethodPatch)

	// Переходы жизненного цикла: confirm, complete, cancel, mark_no_show
	protected.HandleFunc("/appointments/{appointmentId}/{event}", transitionAppointment.Handle).Methods(http.MethodPatch)

	// Предложение освободившегося приема листу ожидания
	protected.HandleFunc("/appointments/{appointmentId}/waitlist/notify", notifyWaitlist.Handle).Methods(http.MethodPost)

	// История приемов
	protected.HandleFunc("/patients/{patientId}/appointments", getPatientAppointments.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/appointments", getProviderAppointments.Handle).Methods(http.MethodGet)

	// --- Лист ожидания ---
	protected.HandleFunc("/waitlist", joinWaitlist.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/{entryId}", withdrawWaitlistEntry.Handle).Methods(http.MethodDelete)
	protected.HandleFunc("/waitlist/{entryId}/priority", recomputeWaitlistPriority.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/{entryId}/claim", claimWaitlistEntry.Handle).Methods(http.MethodPatch)

	// --- Управление расписанием (для врачей) ---
	protected.HandleFunc("/providers/{providerId}/schedules/{date}", upsertProviderSchedule.Handle).Methods(http.MethodPut)

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

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Таймеры восстановятся из БД при следующем запуске
	if err := timers.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler stopped with error: %v", err)
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Error("Notification dispatcher stopped with error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Error("Failed to close event publisher: %v", err)
	}

	log.Info("Server stopped gracefully")
}
