package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"envelope/database"
	"envelope/ledger"
	"envelope/middleware"
	"envelope/service"

	"github.com/spf13/cobra"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			a.log.Info("数据库迁移完成", "driver", a.cfg.Database.Driver)
			fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
			return nil
		},
	}
}

func tokenCmd(a *app) *cobra.Command {
	var (
		userID string
		expire time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "为指定用户签发 JWT（本地调试用）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if expire <= 0 {
				expire = a.cfg.JWT.ExpireTime
			}
			middleware.InitJWT(a.cfg)
			token, err := middleware.GenerateToken(userID, expire)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	cmd.Flags().DurationVar(&expire, "expire", 0, "有效期，默认取 jwt.expire_hours")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func readyCmd(a *app) *cobra.Command {
	var userID, month string
	cmd := &cobra.Command{
		Use:   "ready",
		Short: "查看某月可分配资金",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := ledger.MonthOf(time.Now())
			if month != "" {
				parsed, err := ledger.ParseMonth(month)
				if err != nil {
					return err
				}
				m = parsed
			}
			l, err := a.ledger()
			if err != nil {
				return err
			}
			s, err := l.Calculator.ReadyToAssign(cmd.Context(), userID, m)
			if err != nil {
				return err
			}

			exp := a.cfg.Ledger.CurrencyExponent
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "月份\t%s\n", ledger.FormatMonth(s.Month))
			fmt.Fprintf(w, "账户合计\t%s\n", ledger.FormatAmount(s.TotalFunds, exp))
			fmt.Fprintf(w, "类别可用\t%s\n", ledger.FormatAmount(s.TotalAvailable, exp))
			fmt.Fprintf(w, "可分配资金\t%s\n", ledger.FormatAmount(s.ReadyToAssign, exp))
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	cmd.Flags().StringVar(&month, "month", "", "月份 (2024-03)，默认当前月")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func reconcileCmd(a *app) *cobra.Command {
	var (
		userID string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "按交易流水重建账户余额与预算行",
		Long: `重新计算账户余额（初始余额 + 交易合计）和每个类别的月度活动，并逐月重算可用额。
用于记账出现部分生效告警后的人工恢复。--dry-run 只报告差异不修改数据。`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := a.ledger()
			if err != nil {
				return err
			}
			report, err := l.Reconciler.Reconcile(cmd.Context(), userID, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "账户 %d 个，预算行 %d 个，差异 %d 处\n", report.Accounts, report.Budgets, len(report.Drifts))
			if len(report.Drifts) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "对象\tID\t月份\t字段\t存储值\t重算值")
			for _, d := range report.Drifts {
				id, m := d.ID, ""
				if d.Entity == "budget" {
					id, m = d.CategoryID, ledger.FormatMonth(d.Month)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", d.Entity, id, m, d.Field, d.Stored, d.Expected)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintln(out, "dry-run：未修改数据")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "用户 ID")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只检查不修复")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func alertTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "alert-test",
		Short: "发送一封测试告警邮件",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.Email.Enabled {
				return errors.New("邮件告警未启用，请在配置中设置 email.enabled")
			}
			if err := service.NewAlertService(&a.cfg.Email).SendTestEmail(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "测试邮件已发送到 %s\n", a.cfg.Email.AlertTo)
			return nil
		},
	}
}
