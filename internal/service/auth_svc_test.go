package service

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"retail_sync_v1_202608/internal/middleware"
	"retail_sync_v1_202608/internal/model"
	"retail_sync_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

func setupAuthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	db.AutoMigrate(&model.SysUser{})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username, password string, status int) *model.SysUser {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("生成密码哈希失败: %v", err)
	}
	user := model.SysUser{Username: username, Password: string(hash), Status: status}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return &user
}

// ==================== 登录 ====================

func TestLogin_Success(t *testing.T) {
	db := setupAuthTestDB(t)
	createTestUser(t, db, "admin", "secret123", 1)

	svc := NewAuthService(repository.NewUserRepository(db))

	result, err := svc.Login(context.Background(), "admin", "secret123")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Errorf("Token 对不完整")
	}
	if result.Username != "admin" {
		t.Errorf("username = %q", result.Username)
	}

	// 签发的 access token 可解析
	claims, err := middleware.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("解析 access token 失败: %v", err)
	}
	if claims.Subject != "access" {
		t.Errorf("subject = %q, want access", claims.Subject)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db := setupAuthTestDB(t)
	createTestUser(t, db, "admin", "secret123", 1)

	svc := NewAuthService(repository.NewUserRepository(db))

	_, err := svc.Login(context.Background(), "admin", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}

	// 不存在的用户同样返回统一错误，不泄露用户是否存在
	_, err = svc.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_DisabledUser(t *testing.T) {
	db := setupAuthTestDB(t)
	createTestUser(t, db, "blocked", "secret123", 0)

	svc := NewAuthService(repository.NewUserRepository(db))

	_, err := svc.Login(context.Background(), "blocked", "secret123")
	if !errors.Is(err, ErrUserDisabled) {
		t.Errorf("err = %v, want ErrUserDisabled", err)
	}
}

// ==================== 刷新 ====================

func TestRefreshToken(t *testing.T) {
	db := setupAuthTestDB(t)
	createTestUser(t, db, "admin", "secret123", 1)

	svc := NewAuthService(repository.NewUserRepository(db))
	ctx := context.Background()

	login, err := svc.Login(ctx, "admin", "secret123")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken 失败: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Errorf("刷新后 access token 为空")
	}

	// access token 不能当 refresh token 用
	if _, err := svc.RefreshToken(ctx, login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}

	// 乱串
	if _, err := svc.RefreshToken(ctx, "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshToken_DisabledAfterIssue(t *testing.T) {
	db := setupAuthTestDB(t)
	user := createTestUser(t, db, "admin", "secret123", 1)

	svc := NewAuthService(repository.NewUserRepository(db))
	ctx := context.Background()

	login, err := svc.Login(ctx, "admin", "secret123")
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}

	// 签发后被禁用，refresh 必须失败
	db.Model(&model.SysUser{}).Where("id = ?", user.ID).Update("status", 0)

	if _, err := svc.RefreshToken(ctx, login.RefreshToken); !errors.Is(err, ErrUserDisabled) {
		t.Errorf("err = %v, want ErrUserDisabled", err)
	}
}
