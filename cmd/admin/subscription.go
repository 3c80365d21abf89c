package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"cvforge/internal/database"
	"cvforge/internal/subscription"
)

func newSubscriptionCmd(flags *dbFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "subscription", Short: "订阅管理"}

	var (
		userID      uint
		plan        string
		contentType string
	)
	grant := &cobra.Command{
		Use:   "grant",
		Short: "手工开通订阅（不关联支付）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := flags.open()
			if err != nil {
				return err
			}
			return grantSubscription(cmd.Context(), cmd.OutOrStdout(), db, userID, plan, contentType)
		},
	}
	grant.Flags().UintVar(&userID, "user", 0, "用户 ID（必填）")
	grant.Flags().StringVar(&plan, "plan", database.PlanMonthly, "套餐：trial | monthly | quarterly | yearly")
	grant.Flags().StringVar(&contentType, "type", database.ContentAll, "内容类型：cv | cover-letter | all")
	_ = grant.MarkFlagRequired("user")

	var (
		id     string
		status string
	)
	setStatus := &cobra.Command{
		Use:   "set-status",
		Short: "修改订阅状态",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := flags.open()
			if err != nil {
				return err
			}
			if err := subscription.NewService(db).SetStatus(cmd.Context(), id, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subscription %s -> %s\n", id, status)
			return nil
		},
	}
	setStatus.Flags().StringVar(&id, "id", "", "订阅 ID（必填）")
	setStatus.Flags().StringVar(&status, "status", "", "active | canceled | expired（必填）")
	_ = setStatus.MarkFlagRequired("id")
	_ = setStatus.MarkFlagRequired("status")

	cmd.AddCommand(grant, setStatus)
	return cmd
}

func grantSubscription(ctx context.Context, out io.Writer, db *gorm.DB, userID uint, plan, contentType string) error {
	sub, err := subscription.NewService(db).Grant(ctx, userID, plan, contentType)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "subscription %s granted: user=%d plan=%s type=%s until %s\n",
		sub.ID, sub.UserID, sub.Plan, sub.Type, sub.EndDate.Format("2006-01-02"))
	return nil
}
