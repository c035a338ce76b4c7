// Package db はPostgreSQLへのGORM接続とスキーママイグレーションを提供します。
package db

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// retryInterval は接続リトライの間隔です。
var retryInterval = 3 * time.Second

// Config はデータベース接続設定を保持します。
// InstanceNameが設定されている場合、Cloud SQLのUnixソケット経由で接続します。
type Config struct {
	User         string `env:"DB_USER" envDefault:"postgres"`
	Password     string `env:"DB_PASSWORD"`
	Name         string `env:"DB_NAME" envDefault:"marketplace"`
	Host         string `env:"DB_HOST" envDefault:"localhost"`
	Port         string `env:"DB_PORT" envDefault:"5432"`
	SSLMode      string `env:"DB_SSLMODE" envDefault:"disable"`
	InstanceName string `env:"INSTANCE_CONNECTION_NAME"`
}

// BuildDSN は設定からPostgreSQLの接続URLを生成します。
func BuildDSN(cfg Config) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if cfg.InstanceName != "" {
		// Cloud SQL: ホストはUnixソケットのディレクトリ
		q.Set("host", "/cloudsql/"+cfg.InstanceName)
	} else {
		u.Host = cfg.Host + ":" + cfg.Port
	}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Opener はDSNからGORM接続を開く関数です。テストで差し替え可能です。
type Opener func(dsn string) (*gorm.DB, error)

// OpenPostgres はPostgreSQLドライバーでGORM接続を開きます。
// TranslateErrorを有効にし、一意制約違反をgorm.ErrDuplicatedKeyとして返します。
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// ConnectWithRetry はタイムアウトまで一定間隔で接続を再試行します。
// Cloud SQLやコンテナ起動直後のDBがまだ接続を受け付けない場合に備えます。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 1; ; attempt++ {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %d attempts: %w", attempt, err)
		}
		slog.Warn("db connect failed, retrying", "attempt", attempt, "error", err)
		time.Sleep(retryInterval)
	}
}
