package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeforiati/gbstats/internal/pipeline"
)

var (
	runsStatus string
	runsLimit  int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "실행 기록 관리",
	Long:  `통계 실행 기록과 단계별 상태를 조회합니다.`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "실행 기록 목록",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "실행 상세 (단계별)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "실행 기록 삭제",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)

	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "상태 필터")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "결과 수 제한")
}

func getRunService() (*pipeline.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, cleanup, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.NewService(database), cleanup, nil
}

var statusEmoji = map[string]string{
	pipeline.StatusPending:  "⏳",
	pipeline.StatusRunning:  "🔄",
	pipeline.StatusComplete: "✅",
	pipeline.StatusFailed:   "❌",
	pipeline.StatusSkipped:  "⚪",
}

func runRunsList(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := getRunService()
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := svc.List(runsStatus, runsLimit)
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"runs": runs,
		})
		return nil
	}

	if len(runs) == 0 {
		fmt.Println("실행 기록이 없습니다.")
		return nil
	}

	fmt.Printf("%-38s %-12s %-6s %-8s %s\n", "ID", "STATUS", "RULES", "SIGS", "CREATED")
	fmt.Println(strings.Repeat("-", 85))
	for _, r := range runs {
		fmt.Printf("%-38s %s %-10s %-6s %-8d %s\n",
			r.ID, statusEmoji[r.Status], r.Status, r.Rules, r.Signatories,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := getRunService()
	if err != nil {
		return err
	}
	defer cleanup()

	run, err := svc.Get(args[0])
	if err != nil {
		return err
	}
	stages, err := svc.GetStages(run.ID)
	if err != nil {
		return err
	}
	completed, total, err := svc.GetProgress(run.ID)
	if err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"run":       run,
			"stages":    stages,
			"completed": completed,
			"total":     total,
		})
		return nil
	}

	printRun(run)
	fmt.Printf("진행: %d/%d\n", completed, total)
	fmt.Println()
	printStages(stages)

	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := getRunService()
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := svc.Get(args[0]); err != nil {
		return err
	}
	if err := svc.Delete(args[0]); err != nil {
		return err
	}

	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "deleted",
			"id":     args[0],
		})
	} else {
		fmt.Printf("✓ 실행 기록 삭제: %s\n", args[0])
	}
	return nil
}

func printRun(r *pipeline.Run) {
	fmt.Printf("%s 실행: %s\n", statusEmoji[r.Status], r.ID)
	fmt.Printf("  상태:     %s\n", r.Status)
	fmt.Printf("  규칙:     %s (version policy: %s)\n", r.Rules, r.VersionPolicy)
	fmt.Printf("  퍼블리셔: %d, 서명기관: %d\n", r.Publishers, r.Signatories)
	fmt.Printf("  생성:     %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
	if r.StartedAt.Valid && r.CompletedAt.Valid {
		fmt.Printf("  소요:     %s\n", r.CompletedAt.Time.Sub(r.StartedAt.Time))
	}
	if r.Error.Valid {
		fmt.Printf("  에러:     %s\n", r.Error.String)
	}
}

func printStages(stages []pipeline.StageRecord) {
	for _, s := range stages {
		line := fmt.Sprintf("  %s %-10s", statusEmoji[s.Status], s.Stage)
		if s.StartedAt.Valid && s.CompletedAt.Valid {
			line += fmt.Sprintf(" %s", s.CompletedAt.Time.Sub(s.StartedAt.Time))
		}
		fmt.Println(line)
		if s.Error.Valid {
			fmt.Printf("      └─ %s\n", s.Error.String)
		}
	}
}
