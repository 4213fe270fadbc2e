package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeforiati/gbstats/internal/cache"
	"github.com/codeforiati/gbstats/internal/db"
	"github.com/codeforiati/gbstats/internal/pipeline"
	"github.com/codeforiati/gbstats/internal/progress"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "통합 상태 조회",
	Long: `현재 상태를 한눈에 조회합니다.

최근 실행, 캐시된 source, 진행 이력 현황을 보여줍니다.`,
	RunE: runStatus,
}

var statusVerifyFlag bool

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusVerifyFlag, "verify", false, "캐시 체크섬 검증")
}

// StatusSummary holds all status information
type StatusSummary struct {
	SchemaVersion int                    `json:"schema_version"`
	Runs          int                    `json:"runs"`
	Latest        *pipeline.Run          `json:"latest,omitempty"`
	Stages        []pipeline.StageRecord `json:"stages,omitempty"`
	Artifacts     []cache.Artifact       `json:"artifacts"`
	Verified      map[string]bool        `json:"verified,omitempty"`
	History       HistoryStatus          `json:"history"`
}

type HistoryStatus struct {
	Path      string             `json:"path"`
	Snapshots int                `json:"snapshots"`
	Last      *progress.Snapshot `json:"last,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, cleanup, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runSvc := pipeline.NewService(database)
	store := cache.NewStore(database)

	summary := StatusSummary{}
	summary.SchemaVersion, _ = database.GetVersion()
	summary.Runs, err = db.CountRows(database, "runs")
	if err != nil {
		return err
	}

	// 최근 실행
	summary.Latest, err = runSvc.Latest()
	if err != nil {
		return err
	}
	if summary.Latest != nil {
		summary.Stages, _ = runSvc.GetStages(summary.Latest.ID)
	}

	// 캐시
	summary.Artifacts, err = store.List()
	if err != nil {
		return err
	}
	if statusVerifyFlag {
		summary.Verified = map[string]bool{}
		for _, a := range summary.Artifacts {
			ok, err := store.Verify(a.Name)
			if err != nil {
				return err
			}
			summary.Verified[a.Name] = ok
		}
	}

	// 진행 이력
	series, err := progress.LoadCSV(cfg.HistoryPath())
	if err != nil {
		return err
	}
	summary.History = HistoryStatus{Path: cfg.HistoryPath(), Snapshots: len(series)}
	if last, ok := series.Last(); ok {
		summary.History.Last = &last
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(summary)
		return nil
	}

	fmt.Println("═══════════════════════════════════════")
	fmt.Println("         📊 gbstats 상태")
	fmt.Println("═══════════════════════════════════════")
	fmt.Println()

	fmt.Printf("🔄 실행 기록: %d개 (schema v%d)\n", summary.Runs, summary.SchemaVersion)
	if summary.Latest != nil {
		printRun(summary.Latest)
		printStages(summary.Stages)
	} else {
		fmt.Println("  (실행 기록 없음)")
	}
	fmt.Println()

	fmt.Printf("📦 캐시: %d개 source\n", len(summary.Artifacts))
	for _, a := range summary.Artifacts {
		line := fmt.Sprintf("  %-26s %10d bytes  %s", a.Name, a.Size, a.FetchedAt.Format("2006-01-02 15:04"))
		if statusVerifyFlag {
			if summary.Verified[a.Name] {
				line += "  ✅"
			} else {
				line += "  ❌ 체크섬 불일치"
			}
		}
		fmt.Println(line)
	}
	fmt.Println()

	fmt.Printf("📈 진행 이력: %d개 스냅샷\n", summary.History.Snapshots)
	if last := summary.History.Last; last != nil {
		fmt.Printf("  최근: %s (서명기관 %d, IATI %d)\n", last.Date, last.Total, last.IATI)
	}

	return nil
}
