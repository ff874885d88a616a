package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newsdesk/internal/config"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/handler"
	"github.com/newsdesk/internal/router"
)

func main() {
	// .env 缺失不致命，线上环境直接走环境变量
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库（含自动迁移）
	gdb, err := db.Init(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 设置并运行 Gin 服务器
	api := handler.NewAPI(gdb, cfg.MediaRoot)
	r := router.SetupRouter(cfg, api)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
