package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/logger"
	"envelope/middleware"
	"envelope/router"
	"envelope/service"
)

// @title 信封预算账本 API
// @version 1.0
// @description 信封预算账本：账户、类别预算、交易记录与可分配资金
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("信封预算账本 v%s\n", version)
		return
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.Log).With("component", logger.ComponentApp)

	// 命令行参数覆盖端口配置
	if port != "" {
		// 自动添加冒号前缀
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Info("命令行指定端口", "port", port)
	}

	// 打印配置信息
	config.PrintConfig()

	// 初始化数据库
	if err := database.Init(cfg); err != nil {
		log.Error("数据库初始化失败", "error", err)
		os.Exit(1)
	}

	// 初始化 JWT
	middleware.InitJWT(cfg)

	l := ledger.New(database.DB, ledger.Options{
		Atomic:                cfg.Ledger.Atomic,
		IncludeCreditAccounts: cfg.Ledger.IncludeCreditAccounts,
		Reporter:              service.NewAlertService(&cfg.Email),
	})

	// 设置路由
	r := router.SetupRouter(cfg, l)

	log.Info("信封预算账本已启动",
		"version", version,
		"swagger", fmt.Sprintf("http://localhost%s/swagger/index.html", cfg.Server.Port),
		"api", fmt.Sprintf("http://localhost%s/api/v1/", cfg.Server.Port))

	if err := r.Run(cfg.Server.Port); err != nil {
		log.Error("服务器启动失败", "error", err)
		os.Exit(1)
	}
}
