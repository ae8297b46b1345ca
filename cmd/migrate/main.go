// Package main 数据库迁移工具
package main

import (
	"flag"
	"log"

	"github.com/pu-ac-cn/hypergrid-backend/internal/config"
	"github.com/pu-ac-cn/hypergrid-backend/internal/database"
)

func main() {
	// 命令行参数
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化数据库连接
	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}
	defer database.Close()
	log.Println("数据库连接成功")

	// 执行迁移
	log.Println("开始执行数据库迁移...")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("迁移失败: %v", err)
	}

	log.Println("数据库迁移完成！")

	// 打印创建的表
	log.Println("已创建/更新的表:")
	log.Println("  - hg_friends (跨网格好友关系表)")
	log.Println("  - hg_offline_messages (离线消息表)")
	log.Println("  - grid_users (网格用户位置表)")
	log.Println("  - inventory_folders (库存目录表)")
	log.Println("  - inventory_items (库存物品表)")
}
