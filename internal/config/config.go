package config

import (
	"fmt"
	"os"
	"strings"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	SessionSecret string
	GinMode       string
	MediaRoot     string
	PrivateAPIKey string
	MediaAPIKey   string
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// 两个 API key 没有默认值：留空时对应端点会拒绝所有请求。
func Load() AppConfig {
	port := getEnv("PORT", "8080")

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	return AppConfig{
		ListenAddr:    listenAddr,
		Port:          port,
		DatabasePath:  getEnv("DATABASE_PATH", "newsdesk.db"),
		SessionSecret: getEnv("SESSION_SECRET", "newsdesk-dev-secret"),
		GinMode:       getEnv("GIN_MODE", "release"),
		MediaRoot:     getEnv("MEDIA_ROOT", "public"),
		PrivateAPIKey: strings.TrimSpace(os.Getenv("PRIVATE_API_KEY")),
		MediaAPIKey:   strings.TrimSpace(os.Getenv("MEDIA_API_KEY")),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
