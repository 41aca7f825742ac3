// Package postgres 生成历史的 PostgreSQL 存储
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"book-workshop-api/internal/config"
	"book-workshop-api/pkg/logger"
)

var tracer = otel.Tracer("postgres")

// Client 生成历史数据库连接
type Client struct {
	db *gorm.DB
}

// NewClient 打开连接池并确认可用；auto_migrate 开启时同步表结构
func NewClient(ctx context.Context, cfg *config.PostgresConfig) (*Client, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(slogWriter{}, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c := &Client{db: db}
	if cfg.AutoMigrate {
		if err := c.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return c, nil
}

// Migrate 同步 generation_records 表
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&generationRecordModel{}); err != nil {
		return fmt.Errorf("failed to migrate generation records: %w", err)
	}
	return nil
}

// Close 关闭连接池
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck 就绪检查
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.HealthCheck")
	defer span.End()

	sqlDB, err := c.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// slogWriter 把 gorm 的慢查询与错误日志转到 slog
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	logger.Warn(context.Background(), "gorm", "detail", fmt.Sprintf(format, args...))
}
