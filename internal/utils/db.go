// 包 utils：PostgreSQL 连接工具，统一从环境变量组装 DSN 与连接池参数
package utils

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
)

// EnvOr：读取环境变量，未设置时回退默认值
func EnvOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt：读取整数环境变量，解析失败回退默认值
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// BuildPostgresDSNFromEnv：由 PG_* 环境变量组装连接串，默认库名 twmap
func BuildPostgresDSNFromEnv() string {
	user := EnvOr("PG_USER", "postgres")
	dsn := "postgres://" + user
	if pass := os.Getenv("PG_PASSWORD"); pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + EnvOr("PG_HOST", "localhost") + ":" + EnvOr("PG_PORT", "5432") +
		"/" + EnvOr("PG_DB", "twmap") + "?sslmode=" + EnvOr("PG_SSLMODE", "disable")
	return dsn
}

// PostgresEnabled：未配置 PG_HOST 且未显式开启时，服务以无数据库模式运行（着色表仅来自本地文件）
func PostgresEnabled() bool {
	return os.Getenv("PG_HOST") != "" || os.Getenv("PG_ENABLE") == "true"
}

// OpenPostgresFromEnv：打开连接池；连接池大小由 PG_MAX_OPEN_CONNS / PG_MAX_IDLE_CONNS 调整
// 约束：sql.Open 不建立连接，连通性由调用方 Ping 确认
func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(EnvInt("PG_MAX_OPEN_CONNS", 20))
	db.SetMaxIdleConns(EnvInt("PG_MAX_IDLE_CONNS", 10))
	return db, nil
}
