package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codeforiati/gbstats/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "설정 관리",
	Long: `gbstats 설정을 관리합니다.

설정 파일: gbstats.yaml (--config로 변경)

예시:
  gbstats config show                       # 현재 설정 표시
  gbstats config init                       # 설정 초기화
  gbstats config set rules.version v1
  gbstats config set aggregate.version_policy minimum
`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "현재 설정 표시",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "설정 초기화",
	Long:  `기본 설정으로 gbstats.yaml을 생성합니다.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "설정 값 변경",
	Long: `설정 값을 변경합니다.

사용 가능한 키:
  rules.version             지표 규칙 (v1, v2)
  aggregate.version_policy  버전 집계 정책 (exact, minimum)
  progress.mode             진행 이력 기록 방식 (append, upsert)
  workers                   지표 계산 병렬도
  fetch.timeout_seconds     요청 타임아웃 (초)
  fetch.concurrency         동시 요청 수
  fetch.user_agent          User-Agent
  paths.roster              서명기관 목록 CSV
  paths.history             진행 이력 CSV
  paths.output_dir          산출물 디렉토리
  sources.<name>            source URL
`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var (
	configForce bool
)

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "기존 설정 덮어쓰기")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"configured": config.Exists(configPath),
			"root":       cfg.Root(),
			"config":     cfg,
		})
	}

	if !config.Exists(configPath) {
		fmt.Println("⚠️  설정 파일이 없어 기본값을 사용합니다.")
		fmt.Println("  생성: gbstats config init")
		fmt.Println()
	}

	fmt.Println("📋 gbstats 설정")
	fmt.Println()
	fmt.Printf("규칙: %s\n", cfg.Rules.Version)
	fmt.Printf("버전 정책: %s\n", cfg.Aggregate.VersionPolicy)
	fmt.Printf("진행 이력: %s\n", cfg.Progress.Mode)
	fmt.Printf("병렬도: %d\n", cfg.Workers)
	fmt.Println()
	fmt.Println("경로:")
	fmt.Printf("  서명기관: %s\n", cfg.RosterPath())
	fmt.Printf("  진행 이력: %s\n", cfg.HistoryPath())
	fmt.Printf("  캐시 DB: %s\n", cfg.CacheDBPath())
	fmt.Printf("  산출물: %s\n", cfg.OutputDir())
	fmt.Println()
	fmt.Println("Source:")
	names := make([]string, 0, len(cfg.Sources))
	for name := range cfg.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-26s %s\n", name, cfg.Sources[name])
	}

	if verbose {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(string(data))
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if config.Exists(configPath) && !configForce {
		return fmt.Errorf("설정 파일이 이미 존재합니다: %s\n--force 옵션으로 덮어쓰기 가능", configPath)
	}

	cfg := config.DefaultConfig(filepath.Dir(configPath))
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Println("✅ 설정 생성 완료!")
	fmt.Printf("   파일: %s\n", configPath)
	fmt.Println()
	fmt.Println("💡 다음 단계:")
	fmt.Println("  서명기관 목록을 data/signatories.csv에 두고")
	fmt.Println("  gbstats run")

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// 설정 로드 (없으면 기본값)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := setConfigValue(cfg, key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if jsonOut {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"status": "updated",
			"key":    key,
			"value":  value,
		})
	}

	fmt.Printf("✓ %s = %s\n", key, value)
	return nil
}

func setConfigValue(cfg *config.Config, key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s: 숫자가 아닙니다: %s", key, value)
		}
		return n, nil
	}

	switch key {
	case "rules.version":
		cfg.Rules.Version = value
	case "aggregate.version_policy":
		cfg.Aggregate.VersionPolicy = value
	case "progress.mode":
		cfg.Progress.Mode = value
	case "workers":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Workers = n
	case "fetch.timeout_seconds":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Fetch.TimeoutSeconds = n
	case "fetch.concurrency":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Fetch.Concurrency = n
	case "fetch.user_agent":
		cfg.Fetch.UserAgent = value
	case "paths.roster":
		cfg.Paths.Roster = value
	case "paths.history":
		cfg.Paths.History = value
	case "paths.output_dir":
		cfg.Paths.OutputDir = value
	default:
		if name, ok := strings.CutPrefix(key, "sources."); ok && name != "" {
			if cfg.Sources == nil {
				cfg.Sources = map[string]string{}
			}
			cfg.Sources[name] = value
			return nil
		}
		return fmt.Errorf("알 수 없는 키: %s", key)
	}
	return nil
}
