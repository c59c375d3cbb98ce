// 包 ingest：调度每周的着色表刷新任务，运行在服务进程内的后台协程
package ingest

import (
	"context"
	"os"
	"strconv"
	"time"

	"tw-vote-map/internal/election"
	"tw-vote-map/internal/logger"
)

// nextMondayAt：计算 now 之后下一次周一指定小时的时间点（不含当前已过时的当周）
// 约束：基于传入时区 loc 与整点 hour；仅前推至未来时间
func nextMondayAt(now time.Time, loc *time.Location, hour int) time.Time {
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() == time.Monday {
			t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
			if t.After(now) {
				return t
			}
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// StartWeeklyTaipei：在台北时间每周一 4:00 刷新全部年份的着色表
// 背景：上游结果偶有更正，定期全量重算；错误由日志记录，任务继续调度
// 约束：可使用 INGEST_HOUR 覆盖小时（整数），不支持分钟级；ctx 取消后退出
func StartWeeklyTaipei(ctx context.Context, im *Importer) {
	l := logger.L()
	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	hour := 4
	if h := os.Getenv("INGEST_HOUR"); h != "" {
		if n, err := strconv.Atoi(h); err == nil && n >= 0 && n < 24 {
			hour = n
		}
	}
	next := nextMondayAt(time.Now(), loc, hour)
	l.Info("ingest_scheduled", "next", next)
	go func() {
		for {
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			l.Info("ingest_start", "src", im.SrcURL)
			if err := im.ImportAll(ctx, election.Years()); err != nil {
				l.Error("ingest_error", "err", err)
			} else {
				l.Info("ingest_done")
			}
			next = next.AddDate(0, 0, 7)
		}
	}()
}
