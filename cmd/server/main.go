// FixItApp - repair quote and appointment engine for a phone repair
// workshop.
package main

import (
	"time"

	"fixitapp/internal/booking"
	"fixitapp/internal/catalog"
	"fixitapp/internal/config"
	"fixitapp/internal/inventory"
	"fixitapp/internal/logger"
	"fixitapp/internal/otp"
	"fixitapp/internal/repository"
	"fixitapp/internal/repository/sqlite"
	"fixitapp/internal/schedule"
	"fixitapp/internal/server"
	"fixitapp/internal/servicearea"
	"fixitapp/internal/wizard"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load("config.json")
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("starting", zap.String("business", cfg.Business.Name), zap.Bool("debug", cfg.Debug))

	// Database
	db, err := sqlite.New(cfg.GetDatabasePath())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database initialized", zap.String("path", cfg.GetDatabasePath()))

	repos := &repository.Repositories{
		Customers: sqlite.NewCustomerRepo(db),
		Bookings:  sqlite.NewBookingRepo(db),
		Settings:  sqlite.NewSettingsRepo(db),
	}

	// Reference data, loaded once and shared read-only
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatal("failed to load catalog", zap.Error(err))
	}
	log.Info("catalog loaded",
		zap.Int("devices", len(cat.Devices())),
		zap.Int("repairTypes", len(cat.RepairTypes())))

	checker := inventory.NewChecker(inventory.NewStaticProvider(cat.StockTable()))
	matcher := schedule.NewMatcher(checker)
	availability := schedule.NewSettingsProvider(repos.Settings)

	validator := servicearea.NewValidator(cfg.Business.ServiceState, cfg.Business.ServiceCities)
	geocoder := servicearea.NewHTTPGeocoder(cfg.Geocoder.BaseURL, time.Duration(cfg.Geocoder.TimeoutSeconds)*time.Second)

	// Verification codes live in Redis when configured, in memory
	// otherwise
	var codeStore otp.Store
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		codeStore = otp.NewRedisStore(client)
		log.Info("using redis code store", zap.String("addr", cfg.Redis.Addr))
	} else {
		codeStore = otp.NewMemoryStore()
		log.Info("using in-memory code store")
	}

	codes := otp.NewController(codeStore, otp.NewLogSender(log),
		time.Duration(cfg.Sessions.CodeTTLMinutes)*time.Minute)

	committer := booking.NewCommitter(repos.Customers, repos.Bookings, cat, log)

	engine := wizard.NewEngine(cat, checker, matcher, validator, availability, geocoder, codes, committer, log)

	sessions := wizard.NewStore(time.Duration(cfg.Sessions.TTLMinutes) * time.Minute)
	defer sessions.Close()

	srv := server.New(cfg, repos, engine, sessions, log)

	log.Info("server listening", zap.String("addr", cfg.Address()))
	if err := srv.Run(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
