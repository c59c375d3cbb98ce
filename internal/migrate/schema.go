// 包 migrate：首次运行自动建表
package migrate

import (
	"database/sql"
	"fmt"

	"tw-vote-map/internal/logger"
)

// 背景：首次运行自动创建着色表、选举年份表与统计表，保障后续导入与查询
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；仅创建最小必需结构
var stmts = []string{
	`CREATE TABLE IF NOT EXISTS _election_years (
        year TEXT PRIMARY KEY,
        title TEXT NOT NULL DEFAULT '',
        term INT,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS _map_colors (
        year TEXT NOT NULL,
        admin_code TEXT NOT NULL,
        color TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (year, admin_code)
    )`,
	`CREATE TABLE IF NOT EXISTS _map_stats_total (
        id INT PRIMARY KEY,
        renders BIGINT NOT NULL DEFAULT 0,
        sessions BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS _map_stats_daily (
        day DATE PRIMARY KEY,
        renders BIGINT NOT NULL DEFAULT 0,
        sessions BIGINT NOT NULL DEFAULT 0
    )`,
	`INSERT INTO _map_stats_total(id, renders, sessions)
     VALUES(1, 0, 0)
     ON CONFLICT (id) DO NOTHING`,
}

func EnsureSchema(db *sql.DB) error {
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("schema stmt %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
