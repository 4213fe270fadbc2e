package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeforiati/gbstats/internal/analytics"
	"github.com/codeforiati/gbstats/internal/progress"
)

var (
	progressLimit int
	trendMonthly  bool
)

var progressCmd = &cobra.Command{
	Use:     "progress",
	Aliases: []string{"history"},
	Short:   "진행 이력 조회",
	Long:    `signatories-progress.csv에 누적된 스냅샷을 보여줍니다.`,
	RunE:    runProgress,
}

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "진행 이력 추세 분석",
	Long: `진행 이력의 첫 스냅샷과 마지막 스냅샷을 비교합니다.

--monthly: 월별 마지막 스냅샷 목록`,
	RunE: runTrend,
}

func init() {
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(trendCmd)

	progressCmd.Flags().IntVar(&progressLimit, "limit", 0, "최근 N개만 표시 (0 = 전체)")
	trendCmd.Flags().BoolVar(&trendMonthly, "monthly", false, "월별 스냅샷")
}

func runProgress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	series, err := progress.LoadCSV(cfg.HistoryPath())
	if err != nil {
		return err
	}
	if progressLimit > 0 && len(series) > progressLimit {
		series = series[len(series)-progressLimit:]
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"path":      cfg.HistoryPath(),
			"snapshots": series,
		})
		return nil
	}

	if len(series) == 0 {
		fmt.Println("진행 이력이 없습니다.")
		return nil
	}

	printSeriesHeader()
	for _, s := range series {
		printSnapshot(s.ID, s)
	}
	return nil
}

func runTrend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := analytics.New()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	if trendMonthly {
		points, err := a.Monthly(ctx, cfg.HistoryPath())
		if err != nil {
			return err
		}

		if jsonOut {
			json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"months": points,
			})
			return nil
		}

		if len(points) == 0 {
			fmt.Println("진행 이력이 없습니다.")
			return nil
		}
		printSeriesHeader()
		for _, p := range points {
			printSnapshot(p.Month, p.Snapshot)
		}
		return nil
	}

	trend, err := a.Trend(ctx, cfg.HistoryPath())
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(trend)
		return nil
	}

	if trend.Snapshots == 0 {
		fmt.Println("진행 이력이 없습니다.")
		return nil
	}

	fmt.Printf("📈 %s → %s (%d개 스냅샷)\n", trend.From, trend.To, trend.Snapshots)
	fmt.Println()
	for _, d := range trend.Deltas {
		fmt.Printf("  %-50s %4d → %4d  (%+d)\n", d.Column, d.First, d.Last, d.Change)
	}
	return nil
}

func printSeriesHeader() {
	fmt.Printf("%-8s %-12s %6s %6s %6s %6s %6s %6s %6s\n", "ID", "DATE", "TOTAL", "IATI", "HUM", "2.02+", "G202", "G203", "TRACE")
	fmt.Println(strings.Repeat("-", 75))
}

func printSnapshot(label string, s progress.Snapshot) {
	fmt.Printf("%-8s %-12s %6d %6d %6d %6d %6d %6d %6d\n",
		label, s.Date, s.Total, s.IATI, s.Humanitarian, s.V202, s.Granular202, s.Granular203, s.Traceability)
}
