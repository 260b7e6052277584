package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"retail_sync_v1_202608/internal/repository"
)

// ==================== LockCleanupTask 锁清理任务 ====================

// 去重窗口只有几秒，completed 锁行留一小时排障绰绰有余
const lockRetention = time.Hour

// LockCleanupTask 定期清理过期的 webhook 去重锁
type LockCleanupTask struct {
	lockRepo repository.WebhookLockRepository
	cron     *cron.Cron
}

// NewLockCleanupTask 创建锁清理任务
func NewLockCleanupTask(lockRepo repository.WebhookLockRepository) *LockCleanupTask {
	return &LockCleanupTask{
		lockRepo: lockRepo,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务
func (t *LockCleanupTask) Start() {
	// 每 10 分钟清一次
	_, _ = t.cron.AddFunc("0 */10 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := t.lockRepo.PurgeBefore(ctx, time.Now().Add(-lockRetention))
		if err != nil {
			log.Printf("[LockCleanup] 清理失败: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[LockCleanup] 清理过期锁 %d 条", n)
		}
	})

	t.cron.Start()
	log.Println("[LockCleanup] 已启动 (每10分钟)")
}

// Stop 停止任务
func (t *LockCleanupTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[LockCleanup] 已停止")
}
