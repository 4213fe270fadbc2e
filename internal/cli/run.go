package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeforiati/gbstats/internal/aggregate"
	"github.com/codeforiati/gbstats/internal/config"
	"github.com/codeforiati/gbstats/internal/fetch"
	"github.com/codeforiati/gbstats/internal/pipeline"
	"github.com/codeforiati/gbstats/internal/progress"
	"github.com/codeforiati/gbstats/internal/report"
)

var runOffline bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 통계 실행",
	Long: `데이터를 수집하고 지표를 계산해 모든 산출물을 기록합니다.

단계: fetch → load → compute → aggregate → progress → report → metadata

--offline: fetch를 건너뛰고 현재 캐시로 계산`,
	RunE: runRun,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "데이터 수집",
	Long: `설정된 모든 source를 내려받아 캐시를 교체합니다.

하나라도 실패하면 캐시는 변경되지 않습니다.`,
	RunE: runFetch,
}

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "지표 계산 (기록 없음)",
	Long:  `현재 캐시로 지표와 집계를 계산해 출력합니다. 파일이나 실행 기록은 남기지 않습니다.`,
	RunE:  runCompute,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(computeCmd)

	runCmd.Flags().BoolVar(&runOffline, "offline", false, "fetch 없이 캐시로 계산")
}

func newRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	database, cleanup, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	fetcher := fetch.NewHTTPFetcher(cfg.FetchTimeout(), cfg.Fetch.UserAgent)
	runner := pipeline.NewRunner(cfg, database, fetcher)
	runner.SetLogger(logf)
	return runner, cleanup, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, cleanup, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := runner.Run(ctx, pipeline.Options{Offline: runOffline})
	if err != nil {
		if jsonOut {
			out := map[string]interface{}{
				"status": pipeline.StatusFailed,
				"error":  err.Error(),
			}
			if res != nil {
				out["run_id"] = res.RunID
			}
			json.NewEncoder(os.Stdout).Encode(out)
		} else {
			fmt.Printf("❌ 실행 실패: %v\n", err)
		}
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":   pipeline.StatusComplete,
			"run_id":   res.RunID,
			"counts":   res.Aggregate.Counts,
			"homepage": res.Homepage,
			"output":   cfg.OutputDir(),
		})
		return nil
	}

	fmt.Println()
	fmt.Printf("✅ 실행 완료: %s\n", res.RunID)
	printCounts(res.Aggregate.Counts)
	fmt.Println()
	fmt.Printf("📁 산출물: %s\n", cfg.OutputDir())
	for _, name := range report.Files() {
		fmt.Printf("   - %s\n", name)
	}
	fmt.Printf("📈 진행 이력: %s (%d행)\n", cfg.HistoryPath(), len(res.Series))

	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, cleanup, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	artifacts, err := runner.Fetch(ctx)
	if err != nil {
		return err
	}

	if jsonOut {
		items := make([]map[string]interface{}, 0, len(artifacts))
		for _, a := range artifacts {
			items = append(items, map[string]interface{}{
				"name": a.Name,
				"size": len(a.Body),
			})
		}
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status":    "fetched",
			"artifacts": items,
		})
		return nil
	}

	fmt.Printf("✓ %d개 source 캐시 완료\n", len(artifacts))
	return nil
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	runner, cleanup, err := newRunner(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ev, err := runner.Evaluate()
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"publishers": len(ev.Entries),
			"counts":     ev.Aggregate.Counts,
			"homepage":   ev.Homepage,
		})
		return nil
	}

	fmt.Printf("📊 퍼블리셔 %d개, 서명기관 %d개\n", len(ev.Entries), ev.Aggregate.Counts.TotalSignatories)
	printCounts(ev.Aggregate.Counts)

	if verbose {
		fmt.Println()
		fmt.Printf("%-40s %-6s %-6s %-6s %-6s %-6s %-6s\n", "SIGNATORY", "IATI", "HUM", "2.02+", "G202", "G203", "TRACE")
		fmt.Println(strings.Repeat("-", 82))
		for _, name := range ev.Aggregate.Order {
			f := ev.Aggregate.Signatories[name]
			display := name
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			fmt.Printf("%-40s %-6s %-6s %-6s %-6s %-6s %-6s\n", display,
				mark(f.UsesIATI), mark(f.PublishesHumanitarian), mark(f.UsesV202OrLater),
				mark(f.HasGranular202), mark(f.HasGranular203), mark(f.HasTraceability))
		}
	}

	return nil
}

func printCounts(c aggregate.Counts) {
	fmt.Println()
	fmt.Printf("  %-50s %d\n", progress.ColumnTotal, c.TotalSignatories)
	fmt.Printf("  %-50s %d\n", progress.ColumnIATI, c.IATI)
	fmt.Printf("  %-50s %d\n", progress.ColumnHumanitarian, c.Humanitarian)
	fmt.Printf("  %-50s %d\n", progress.ColumnV202, c.V202OrLater)
	fmt.Printf("  %-50s %d\n", progress.ColumnGranular202, c.Granular202)
	fmt.Printf("  %-50s %d\n", progress.ColumnGranular203, c.Granular203)
	fmt.Printf("  %-50s %d\n", progress.ColumnTraceability, c.Traceability)
}

func mark(b bool) string {
	if b {
		return "✅"
	}
	return "-"
}
