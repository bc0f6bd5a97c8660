package db

import (
	"fmt"
	"time"

	xlogger "github.com/go-slark/svcindex/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Config struct {
	Driver        string        `json:"driver"` // mysql or sqlite
	DSN           string        `json:"dsn"`
	MaxIdleConn   int           `json:"max_idle_conn"`
	MaxOpenConn   int           `json:"max_open_conn"`
	MaxLifeTime   time.Duration `json:"max_life_time"`
	MaxIdleTime   time.Duration `json:"max_idle_time"`
	LogLevel      int           `json:"log_level"` // gorm levels 1..4, warn when unset
	SlowThreshold time.Duration `json:"slow_threshold"`
	Tracing       bool          `json:"tracing"`
}

type Client struct {
	*gorm.DB
}

func New(c *Config, l xlogger.Logger) (*Client, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "mysql", "":
		dialector = mysql.Open(c.DSN)
	case "sqlite":
		dialector = sqlite.Open(c.DSN)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", c.Driver)
	}

	level := logger.LogLevel(c.LogLevel)
	if level == 0 {
		level = logger.Warn
	}
	opts := []LoggerOption{WithLogLevel(level), WithLogger(l)}
	if c.SlowThreshold != 0 {
		opts = append(opts, WithSlowThreshold(c.SlowThreshold))
	}
	cfg := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         NewLogger(opts...),
	}
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxIdleConn != 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdleConn)
	}
	if c.MaxOpenConn != 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConn)
	}
	if c.MaxLifeTime != 0 {
		sqlDB.SetConnMaxLifetime(c.MaxLifeTime)
	}
	if c.MaxIdleTime != 0 {
		sqlDB.SetConnMaxIdleTime(c.MaxIdleTime)
	}

	if err = sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if c.Tracing {
		if err = db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return &Client{DB: db}, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
