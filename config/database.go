package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
	// Do NOT block startup in init() waiting for DB.
}

// dialector picks the driver from DATABASE_URL:
//
//	sqlite:<file>          local file, created on demand
//	postgres://...         PostgreSQL
//	(empty)                MySQL built from DB_USER, DB_PASSWORD, DB_HOST, DB_PORT, DB_NAME
func dialector() gorm.Dialector {
	connectURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	switch {
	case strings.HasPrefix(connectURL, "sqlite:"):
		filename := strings.SplitN(connectURL, ":", 2)[1]
		return sqlite.Open(fmt.Sprintf("%s?mode=rwc&_foreign_keys=1", filename))
	case strings.HasPrefix(connectURL, "postgres://"), strings.HasPrefix(connectURL, "postgresql://"):
		return postgres.Open(connectURL)
	case connectURL != "":
		if cfg, err := mysqldriver.ParseDSN(connectURL); err == nil {
			cfg.ClientFoundRows = true
			connectURL = cfg.FormatDSN()
		}
		return mysql.Open(connectURL)
	}
	return mysql.Open(mysqlDSN())
}

func mysqlDSN() string {
	dbHost := os.Getenv("DB_HOST")
	cfg := mysqldriver.NewConfig()
	cfg.User = os.Getenv("DB_USER")
	cfg.Passwd = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.ParseTime = true
	// updates report matched rows, so an unchanged row still counts as found
	cfg.ClientFoundRows = true
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", dbHost, os.Getenv("DB_PORT"))

	// Cloud SQL: DB_HOST=/cloudsql/<CONNECTION_NAME> goes through the proxy's unix socket.
	if strings.HasPrefix(dbHost, "/cloudsql/") {
		cfg.Net = "unix"
		cfg.Addr = dbHost
	}
	return cfg.FormatDSN()
}

// ConnectDatabase makes a single attempt and sets the global DB.
func ConnectDatabase() error {
	conn, err := gorm.Open(dialector(), initConfig())
	if err != nil {
		return err
	}

	// Pool tuning, env overrides:
	// - DB_MAX_OPEN_CONNS (default 50)
	// - DB_MAX_IDLE_CONNS (default 25)
	// - DB_CONN_MAX_LIFETIME_SECONDS (default 300)
	// - DB_CONN_MAX_IDLE_TIME_SECONDS (default 60)
	if sqlDB, derr := conn.DB(); derr == nil && sqlDB != nil {
		maxOpen := intFromEnv("DB_MAX_OPEN_CONNS", 50)
		maxIdle := intFromEnv("DB_MAX_IDLE_CONNS", 25)
		connMaxLife := time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second
		connMaxIdle := time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second

		if conn.Dialector.Name() == "sqlite" {
			// one writer at a time, or sqlite answers "database is locked"
			maxOpen = 1
		}
		if maxOpen > 0 {
			sqlDB.SetMaxOpenConns(maxOpen)
		}
		if maxIdle >= 0 {
			sqlDB.SetMaxIdleConns(maxIdle)
		}
		if connMaxLife > 0 {
			sqlDB.SetConnMaxLifetime(connMaxLife)
		}
		if connMaxIdle > 0 {
			sqlDB.SetConnMaxIdleTime(connMaxIdle)
		}
	}

	if pluginErr := conn.Use(otelgorm.NewPlugin()); pluginErr != nil {
		log.Printf("db connected but failed to install otelgorm plugin: %v", pluginErr)
	}
	if pluginErr := conn.Use(NewCenterGuardPlugin()); pluginErr != nil {
		return fmt.Errorf("install center guard plugin: %w", pluginErr)
	}
	db = conn
	return nil
}

// ConnectDatabaseWithRetry connects and sets the global DB.
// Call this from main() AFTER the HTTP server is listening.
func ConnectDatabaseWithRetry() {
	var attempt int
	for {
		attempt++
		err := ConnectDatabase()
		if err == nil {
			log.Printf("connected to database (attempt=%d driver=%s)", attempt, db.Dialector.Name())
			return
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Printf("failed to connect database (attempt=%d): %v; retrying in %s", attempt, err, sleep)
		time.Sleep(sleep)
	}
}

// CloseDatabase releases the pool and clears the global DB.
func CloseDatabase() {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
	db = nil
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         initLog(),
		NamingStrategy: initNamingStrategy(),
		// duplicate keys surface as gorm.ErrDuplicatedKey on every driver
		TranslateError: true,
	}
}

func initLog() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:                  false,
			LogLevel:                  logger.Error,
			SlowThreshold:             time.Second,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}
