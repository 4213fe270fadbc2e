package cli

import (
	"github.com/spf13/cobra"

	"github.com/codeforiati/gbstats/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "대시보드 TUI 실행",
	Long:  `터미널 기반 대시보드를 실행합니다.`,
	RunE:  runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTui(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	return tui.Run(cfg)
}
