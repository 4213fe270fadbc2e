package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeforiati/gbstats/internal/config"
	"github.com/codeforiati/gbstats/internal/db"
)

var (
	configPath string
	verbose    bool
	jsonOut    bool
)

var rootCmd = &cobra.Command{
	Use:   "gbstats",
	Short: "Grand Bargain 서명기관 IATI 통계",
	Long: `gbstats - Grand Bargain 투명성 통계 생성기

Grand Bargain 서명기관의 IATI 공개 현황을 집계합니다.

주요 기능:
  - Fetch: 분석/통계 데이터 수집 및 캐시
  - 지표 계산: 퍼블리셔별 지표, 서명기관별 집계
  - 진행 이력: signatories-progress.csv 스냅샷 누적
  - 실행 기록: 단계별 상태 추적
  - 추세 분석: 이력 변화량, 월별 스냅샷`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "설정 파일 경로")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "상세 출력")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "JSON 출력")
}

// loadConfig reads the config file and creates its directories
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("디렉토리 생성 실패: %w", err)
	}
	return cfg, nil
}

// openDB opens the cache database of cfg
func openDB(cfg *config.Config) (*db.DB, func(), error) {
	database, err := db.Open(cfg.CacheDBPath())
	if err != nil {
		return nil, nil, err
	}
	return database, func() { database.Close() }, nil
}

// logf prints stage progress. JSON output keeps stdout clean, so logs
// go to stderr only in verbose mode.
func logf(format string, args ...interface{}) {
	if jsonOut {
		if verbose {
			fmt.Fprintf(os.Stderr, format, args...)
		}
		return
	}
	fmt.Printf(format, args...)
}

// IsVerbose returns verbose flag
func IsVerbose() bool {
	return verbose
}

// IsJSON returns json output flag
func IsJSON() bool {
	return jsonOut
}
