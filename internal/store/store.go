// 包 store: 提供与 PostgreSQL 的数据访问层，包含选举着色表、选举年份与渲染统计读写
package store

import (
	"context"
	"database/sql"
	"fmt"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/logger"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供着色表/统计接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Colors: 读取某年份的着色表；年份不存在时返回空表
func (s *Store) Colors(ctx context.Context, year string) (election.ColorMap, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT admin_code, color FROM _map_colors WHERE year=$1", year)
	if err != nil {
		return nil, fmt.Errorf("query colors %s: %w", year, err)
	}
	defer rows.Close()
	out := election.ColorMap{}
	for rows.Next() {
		var code, color string
		if err := rows.Scan(&code, &color); err != nil {
			return nil, fmt.Errorf("scan colors %s: %w", year, err)
		}
		out[code] = color
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate colors %s: %w", year, err)
	}
	logger.L().Debug("db_colors_read", "year", year, "count", len(out))
	return out, nil
}

// 文档注释：写入着色表
// 背景：一次导入为同一年份的全国层级与各县市层级结果，县市代码与乡镇代码互不冲突，按 (year, admin_code) 覆盖写入。
// 约束：单事务提交，失败整体回滚。
func (s *Store) UpsertColors(ctx context.Context, year string, cfg election.ColorMap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO _map_colors(year, admin_code, color, updated_at)
        VALUES($1,$2,$3,now())
        ON CONFLICT (year, admin_code) DO UPDATE SET color=EXCLUDED.color, updated_at=now()`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for code, color := range cfg {
		if _, err := stmt.ExecContext(ctx, year, code, color); err != nil {
			return fmt.Errorf("upsert color %s/%s: %w", year, code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logger.L().Debug("db_colors_upsert", "year", year, "count", len(cfg))
	return nil
}

// UpsertElection: 记录已导入的选举年份与名称
func (s *Store) UpsertElection(ctx context.Context, info *election.ElectionInfo) error {
	var term sql.NullInt64
	if info.Term != nil {
		term = sql.NullInt64{Int64: int64(*info.Term), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO _election_years(year, title, term, updated_at)
        VALUES($1,$2,$3,now())
        ON CONFLICT (year) DO UPDATE SET title=EXCLUDED.title, term=EXCLUDED.term, updated_at=now()`,
		info.GregorianYear, info.Title, term)
	if err != nil {
		return fmt.Errorf("upsert election %s: %w", info.GregorianYear, err)
	}
	return nil
}

// Years: 已导入着色表的年份，升序
func (s *Store) Years(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT year FROM _election_years ORDER BY year ASC")
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var y string
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// 统计类别
const (
	StatRender  = "render"
	StatSession = "session"
)

// IncrStats: 递增累计与当日计数；统计失败不影响主流程
func (s *Store) IncrStats(ctx context.Context, kind string) error {
	col := "renders"
	if kind == StatSession {
		col = "sessions"
	}
	_, _ = s.db.ExecContext(ctx, "UPDATE _map_stats_total SET "+col+"="+col+"+1 WHERE id=1")
	_, _ = s.db.ExecContext(ctx, "INSERT INTO _map_stats_daily(day, "+col+") VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET "+col+"=_map_stats_daily."+col+"+1")
	logger.L().Debug("stats_incr", "kind", kind)
	return nil
}

// Totals: 统计返回结构，包含累计与当日渲染、会话次数
type Totals struct {
	Renders       int64 `json:"renders"`
	Sessions      int64 `json:"sessions"`
	TodayRenders  int64 `json:"today_renders"`
	TodaySessions int64 `json:"today_sessions"`
}

// GetTotals: 读取累计与当日计数，用于接口返回
func (s *Store) GetTotals(ctx context.Context) (*Totals, error) {
	var t Totals
	_ = s.db.QueryRowContext(ctx, "SELECT renders, sessions FROM _map_stats_total WHERE id=1").Scan(&t.Renders, &t.Sessions)
	_ = s.db.QueryRowContext(ctx, "SELECT renders, sessions FROM _map_stats_daily WHERE day=current_date").Scan(&t.TodayRenders, &t.TodaySessions)
	logger.L().Debug("stats_totals", "renders", t.Renders, "sessions", t.Sessions)
	return &t, nil
}
