package aggregate

import (
	"fmt"

	"github.com/codeforiati/gbstats/internal/dataset"
	"github.com/codeforiati/gbstats/internal/roster"
)

// Analytics columns read by the homepage summary
const (
	ColumnNumberOfActivities     = "Number of Activities"
	ColumnPublishingHumanitarian = "Publishing Humanitarian"
)

// HomepageStats is the headline summary shown on the site homepage
type HomepageStats struct {
	Signatories  int `json:"signatories"`
	Publishers   int `json:"publishers"`
	IATI         int `json:"iati"`
	Humanitarian int `json:"humanitarian"`
}

// Homepage counts signatories straight from the analytics table: a
// signatory publishes via IATI when any of its publishers has activities
// and publishes humanitarian data when any has a positive humanitarian share.
func Homepage(entries []roster.Entry, analytics dataset.AnalyticsTable) (HomepageStats, error) {
	type state struct{ iati, humanitarian bool }

	var order []string
	signatories := make(map[string]*state)

	for _, e := range entries {
		st, ok := signatories[e.Signatory]
		if !ok {
			st = &state{}
			signatories[e.Signatory] = st
			order = append(order, e.Signatory)
		}

		row, ok := analytics.Row(e.PublisherID)
		if !ok {
			continue
		}
		// 홈페이지 카운터는 정수 컬럼: 소수는 파싱 오류
		activities, err := dataset.ParseInt(e.PublisherID+"/"+ColumnNumberOfActivities, row[ColumnNumberOfActivities])
		if err != nil {
			return HomepageStats{}, fmt.Errorf("homepage 집계 실패: %w", err)
		}
		share, err := dataset.ParseInt(e.PublisherID+"/"+ColumnPublishingHumanitarian, row[ColumnPublishingHumanitarian])
		if err != nil {
			return HomepageStats{}, fmt.Errorf("homepage 집계 실패: %w", err)
		}
		st.iati = st.iati || activities > 0
		st.humanitarian = st.humanitarian || share > 0
	}

	stats := HomepageStats{
		Signatories: len(order),
		Publishers:  len(entries),
	}
	for _, name := range order {
		stats.IATI += boolInt(signatories[name].iati)
		stats.Humanitarian += boolInt(signatories[name].humanitarian)
	}
	return stats, nil
}
