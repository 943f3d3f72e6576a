package di

import (
	"context"

	"gorm.io/gorm"

	"polytask/application/serviceimpl"
	"polytask/domain/ports"
	"polytask/domain/repositories"
	"polytask/domain/services"
	"polytask/infrastructure/messaging"
	natspkg "polytask/infrastructure/nats"
	"polytask/infrastructure/postgres"
	redispkg "polytask/infrastructure/redis"
	"polytask/interfaces/api/handlers"
	"polytask/interfaces/api/middleware"
	"polytask/pkg/config"
	"polytask/pkg/logger"
	"polytask/pkg/scheduler"
)

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redispkg.Client // cache + rate limiting (optional)
	NATSClient  *natspkg.Client  // NATS connection + JetStream (optional)
	Scheduler   scheduler.Scheduler

	// Messaging Ports
	EventPublisher ports.EventPublisher
	MailQueue      ports.MailQueue

	// Repositories
	UserRepository  repositories.UserRepository
	TaskRepository  repositories.TaskRepository
	TokenRepository repositories.TokenRepository

	// Services
	AuthService        services.AuthService
	UserService        services.UserService
	TaskService        services.TaskService
	LocaleResolver     services.LocaleResolver
	MaintenanceService services.MaintenanceService

	// HTTP cross-cutting
	RateLimiter *middleware.RateLimiter
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	c.initRepositories()
	c.initServices()

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	c.Config = cfg
	logger.Info("Configuration loaded")
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	// Database
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")

	// Redis (optional - graceful degradation: ไม่มี Redis = ไม่มี cache/rate limit)
	if c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis client initialization failed (cache disabled)", "error", err)
		} else {
			c.RedisClient = redisClient
		}
	}

	// NATS (optional - events/notifications เป็น best-effort อยู่แล้ว)
	natsConfig := natspkg.ClientConfig{
		URL: c.Config.NATS.URL,
	}
	natsClient, err := natspkg.NewClient(natsConfig)
	if err != nil {
		logger.Warn("NATS client initialization failed (eventing disabled)", "error", err)
		c.EventPublisher = messaging.NewNATSEventPublisher(nil)
		c.MailQueue = messaging.NewNATSMailQueue(nil)
	} else {
		c.NATSClient = natsClient
		c.EventPublisher = messaging.NewNATSEventPublisher(natsClient.Conn())
		c.MailQueue = messaging.NewNATSMailQueue(natsClient.JetStream())
	}

	return nil
}

func (c *Container) initRepositories() {
	c.UserRepository = postgres.NewUserRepository(c.DB)
	c.TaskRepository = postgres.NewTaskRepository(c.DB)
	c.TokenRepository = postgres.NewTokenRepository(c.DB)
	logger.Info("Repositories initialized")
}

func (c *Container) initServices() {
	c.LocaleResolver = serviceimpl.NewLocaleResolver(c.UserRepository, c.RedisClient)
	c.AuthService = serviceimpl.NewAuthService(c.UserRepository, c.TokenRepository, c.Config.Auth)
	c.UserService = serviceimpl.NewUserService(c.UserRepository, c.LocaleResolver)
	c.TaskService = serviceimpl.NewTaskService(
		c.TaskRepository,
		c.UserRepository,
		c.RedisClient,
		c.EventPublisher,
		c.MailQueue,
	)
	c.MaintenanceService = serviceimpl.NewMaintenanceService(
		c.TaskRepository,
		c.TokenRepository,
		c.UserRepository,
		c.MailQueue,
	)
	c.RateLimiter = middleware.NewRateLimiter(c.RedisClient)
	logger.Info("Services initialized")
}

func (c *Container) initScheduler() error {
	c.Scheduler = scheduler.NewScheduler()

	ctx := context.Background()

	// ลบ expired tokens ทุกชั่วโมง
	err := c.Scheduler.AddJob("purge-expired-tokens", "0 * * * *", func() {
		if _, err := c.MaintenanceService.PurgeExpiredTokens(ctx); err != nil {
			logger.Warn("Token purge job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// ลบถาวร tasks ที่ soft delete ค้างเกิน retention ทุกวัน 03:00 UTC
	err = c.Scheduler.AddJob("purge-deleted-tasks", "0 3 * * *", func() {
		if _, err := c.MaintenanceService.PurgeOldDeletedTasks(ctx); err != nil {
			logger.Warn("Deleted-task purge job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	// แจ้งเตือน tasks ที่ใกล้ due ทุก 30 นาที
	err = c.Scheduler.AddJob("notify-due-soon", "*/30 * * * *", func() {
		if _, err := c.MaintenanceService.NotifyDueSoonTasks(ctx); err != nil {
			logger.Warn("Due-soon notification job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	c.Scheduler.Start()
	logger.Info("Scheduler started", "jobs", 3)
	return nil
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	if c.Scheduler != nil && c.Scheduler.IsRunning() {
		c.Scheduler.Stop()
		logger.Info("Scheduler stopped")
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database connection", "error", err)
			} else {
				logger.Info("Database connection closed")
			}
		}
	}

	logger.Info("Cleanup completed")
	return nil
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		AuthService:     c.AuthService,
		UserService:     c.UserService,
		TaskService:     c.TaskService,
		LocaleResolver:  c.LocaleResolver,
		TokenRepository: c.TokenRepository,
		RateLimiter:     c.RateLimiter,
		JWTSecret:       c.Config.Auth.JWTSecret,
	}
}
