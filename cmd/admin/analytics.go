package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cvforge/internal/analytics"
)

func newAnalyticsCmd(flags *dbFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "analytics", Short: "统计报表"}

	var (
		report string
		months int
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "实时计算并打印一张报表",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := flags.open()
			if err != nil {
				return err
			}
			raw, err := analytics.NewAggregator(db, nil, months, 0, nil).Report(cmd.Context(), report, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("%w (available: %s)", err, strings.Join(analytics.Reports(), ", "))
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, raw, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}
	show.Flags().StringVar(&report, "report", analytics.ReportTotals, "报表名称")
	show.Flags().IntVar(&months, "months", 12, "统计的月份数")

	cmd.AddCommand(show)
	return cmd
}
