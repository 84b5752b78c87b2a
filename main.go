// @title Quiz Grading API
// @version 1.0
// @description 测验评分服务后端：试卷管理、自动评分与主观题人工评分。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"flag"
	"log"
	"path/filepath"

	"quiz_grading_backend/internal/app"
	"quiz_grading_backend/internal/config"
	"quiz_grading_backend/pkg/configwatcher"
	"quiz_grading_backend/pkg/logger"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	flag.Parse()

	configDir := "configs"
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		log.Println("数据库迁移完成，退出程序")
		return
	}

	// 配置文件热加载
	go configwatcher.WatchConfig(filepath.Join(configDir, "config.yaml"), cfg, application.ReloadConfig)

	application.Run()
}
