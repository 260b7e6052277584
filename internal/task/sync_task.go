package task

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/internal/service"
)

// ==================== SweepTask 定时对账任务 ====================

// SweepTask 定时 sweep (拉取 + 推送)
// 店铺间并发由信号量限流，单店铺失败不影响其他店铺
type SweepTask struct {
	storeRepo repository.StoreRepository
	syncSvc   *service.SyncService
	cron      *cron.Cron

	// 并发控制
	concurrencyLimit int
	sleepTime        time.Duration
}

// NewSweepTask 创建对账任务
func NewSweepTask(storeRepo repository.StoreRepository, syncSvc *service.SyncService) *SweepTask {
	return &SweepTask{
		storeRepo:        storeRepo,
		syncSvc:          syncSvc,
		cron:             cron.New(cron.WithSeconds()),
		concurrencyLimit: 3,
		sleepTime:        300 * time.Millisecond,
	}
}

// Start 启动定时任务
func (t *SweepTask) Start() {
	// 每小时整点 sweep
	_, _ = t.cron.AddFunc("0 0 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Minute)
		defer cancel()
		t.sweepAllStores(ctx)
	})

	t.cron.Start()
	log.Println("[SweepTask] 已启动 (每小时)")
}

// Stop 停止任务
func (t *SweepTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[SweepTask] 已停止")
}

// sweepAllStores 所有活跃店铺逐个 sweep
func (t *SweepTask) sweepAllStores(ctx context.Context) {
	stores, err := t.storeRepo.ListActive(ctx)
	if err != nil {
		log.Printf("[SweepTask] 获取店铺列表失败: %v", err)
		return
	}

	if len(stores) == 0 {
		log.Println("[SweepTask] 无活跃店铺需要同步")
		return
	}

	sem := make(chan struct{}, t.concurrencyLimit)
	var wg sync.WaitGroup

	var (
		successCount int
		failCount    int
		mu           sync.Mutex
	)

	log.Printf("[SweepTask] 开始处理 %d 个店铺", len(stores))

	for i := range stores {
		store := stores[i]
		select {
		case <-ctx.Done():
			log.Println("[SweepTask] 任务超时停止")
			wg.Wait()
			return
		default:
		}

		sem <- struct{}{}
		wg.Add(1)
		time.Sleep(t.sleepTime)

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := t.syncSvc.SweepStore(ctx, &store)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				log.Printf("[SweepTask] 店铺 %s(%d) sweep 失败: %v", store.Name, store.ID, err)
				failCount++
			} else {
				successCount++
			}
		}()
	}

	wg.Wait()
	log.Printf("[SweepTask] sweep 完成: 成功 %d, 失败 %d", successCount, failCount)
}

// SweepAllNow 立即对所有店铺 sweep 一轮
func (t *SweepTask) SweepAllNow() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
		defer cancel()
		t.sweepAllStores(ctx)
	}()
}
