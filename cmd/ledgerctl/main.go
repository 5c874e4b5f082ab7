package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"envelope/config"
	"envelope/database"
	"envelope/ledger"
	"envelope/logger"
	"envelope/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app 命令共享的运行时状态，由 PersistentPreRunE 填充
type app struct {
	cfgFile string
	cfg     *config.Config
	db      *gorm.DB
	log     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "信封预算账本运维工具",
		Long:          `ledgerctl 用于迁移数据库、签发本地调试 token、查看可分配资金以及对账修复。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.Init(cfg.Log).With("component", logger.ComponentCLI)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "外部配置文件路径（可选）")

	root.AddCommand(migrateCmd(a))
	root.AddCommand(tokenCmd(a))
	root.AddCommand(readyCmd(a))
	root.AddCommand(reconcileCmd(a))
	root.AddCommand(alertTestCmd(a))
	return root
}

// open 按需打开数据库，token 等命令不需要连接
func (a *app) open() (*gorm.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.Open(a.cfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	a.db = nil
	return sqlDB.Close()
}

func (a *app) ledger() (*ledger.Ledger, error) {
	db, err := a.open()
	if err != nil {
		return nil, err
	}
	return ledger.New(db, ledger.Options{
		Atomic:                a.cfg.Ledger.Atomic,
		IncludeCreditAccounts: a.cfg.Ledger.IncludeCreditAccounts,
		Reporter:              service.NewAlertService(&a.cfg.Email),
	}), nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
