package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"retail_sync_v1_202608/internal/controller"
	"retail_sync_v1_202608/internal/middleware"
	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
	"retail_sync_v1_202608/internal/router"
	"retail_sync_v1_202608/internal/service"
	"retail_sync_v1_202608/internal/task"
	"retail_sync_v1_202608/pkg/database"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// JWT 密钥从环境变量读取
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg := middleware.DefaultJWTConfig()
		cfg.SecretKey = secret
		middleware.SetJWTConfig(cfg)
	}

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	tasks := initTasks(deps)
	defer stopTasks(tasks)

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Store       repository.StoreRepository
	Item        repository.ItemRepository
	Category    repository.CategoryRepository
	Lookup      repository.LookupRepository
	WebhookLock repository.WebhookLockRepository
	User        repository.UserRepository
}

// Services 服务集合
type Services struct {
	Attribute *service.AttributeService
	Category  *service.CategoryService
	Identity  *service.IdentityService
	Image     *service.ImageService
	Shopify   *service.ShopifyService
	Paperclip *service.PaperclipService
	Logo      *service.LogoService
	Sync      *service.SyncService
	Auth      *service.AuthService
	Storage   service.StorageProvider
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL",
		"host=localhost user=postgres password=postgres dbname=retail_sync port=5432 sslmode=disable")

	return database.InitDB(dsn,
		// Manager
		&model.SysUser{},
		// Store
		&model.Store{},
		// Catalog
		&model.Item{}, &model.ItemImage{}, &model.Category{},
		// Lookup
		&model.Color{}, &model.Age{},
		// Webhook
		&model.WebhookLock{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Store:       repository.NewStoreRepository(db),
		Item:        repository.NewItemRepository(db),
		Category:    repository.NewCategoryRepository(db),
		Lookup:      repository.NewLookupRepository(db),
		WebhookLock: repository.NewWebhookLockRepository(db),
		User:        repository.NewUserRepository(db),
	}

	// -------- 存储 --------
	storage := initStorageProvider()

	// -------- 业务服务 --------
	services := &Services{
		Attribute: service.NewAttributeService(),
		Category: service.NewCategoryService(&service.CategoryConfig{
			ApiKey: getEnv("GEMINI_API_KEY", ""),
		}, repos.Category),
		Identity: service.NewIdentityService(repos.Item),
		Image:    service.NewImageService(repos.Item),
		Shopify:  service.NewShopifyService(),
		Paperclip: service.NewPaperclipService(&service.PaperclipConfig{
			BaseURL: getEnv("PAPERCLIP_API_URL", ""),
		}),
		Logo: service.NewLogoService(&service.LogoConfig{
			BaseURL: getEnv("LOGO_API_URL", ""),
			ApiKey:  getEnv("LOGO_API_KEY", ""),
		}),
		Auth:    service.NewAuthService(repos.User),
		Storage: storage,
	}

	services.Sync = service.NewSyncService(
		repos.Item, repos.Store, repos.Category, repos.Lookup, repos.WebhookLock,
		services.Identity, services.Attribute, services.Category, services.Image,
		services.Shopify, services.Paperclip, services.Logo,
	)

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Webhook: controller.NewWebhookController(
			repos.Store, services.Sync, storage,
			getEnv("PAPERCLIP_WEBHOOK_SECRET", ""),
		),
		Auth: controller.NewAuthController(services.Auth),
		Item: controller.NewItemController(repos.Item),
		Sync: controller.NewSyncController(repos.Store, services.Sync),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// initStorageProvider 初始化存储
func initStorageProvider() service.StorageProvider {
	provider, err := service.NewStorageProvider(&service.StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", "s3"),
		Bucket:    getEnv("AWS_BUCKET", ""),
		Region:    getEnv("AWS_REGION", ""),
		AccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		SecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		CDNDomain: getEnv("AWS_CDN_DOMAIN", ""),
		BasePath:  getEnv("STORAGE_BASE_PATH", "retail-sync"),
	})
	if err != nil {
		log.Fatalf("存储初始化失败: %v", err)
	}
	return provider
}

// ==================== 定时任务 ====================

// Tasks 任务集合
type Tasks struct {
	Sweep       *task.SweepTask
	LockCleanup *task.LockCleanupTask
}

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) *Tasks {
	sweepTask := task.NewSweepTask(deps.Repos.Store, deps.Services.Sync)
	sweepTask.Start()

	lockTask := task.NewLockCleanupTask(deps.Repos.WebhookLock)
	lockTask.Start()

	log.Println("定时任务已启动")
	return &Tasks{Sweep: sweepTask, LockCleanup: lockTask}
}

func stopTasks(tasks *Tasks) {
	tasks.Sweep.Stop()
	tasks.LockCleanup.Stop()
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
