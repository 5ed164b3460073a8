// Package statistics summarizes the review log per month.
package statistics

import (
	"fmt"
	"sort"

	"github.com/at-ishikawa/cardsched/internal/card"
	"github.com/at-ishikawa/cardsched/internal/srs"
)

// PeriodStatistics holds the reviews of one month ("2025-01").
type PeriodStatistics struct {
	Period      string
	Reviews     int
	Forgot      int // lapses
	Hard        int
	Easy        int
	CardsUnique int
}

// RecallRate is the share of reviews that were not lapses.
func (s PeriodStatistics) RecallRate() float64 {
	return recallRate(s.Hard+s.Easy, s.Reviews)
}

// AggregateStatistics holds totals across all periods. CardsUnique counts
// each card once even if it was reviewed in several periods.
type AggregateStatistics struct {
	Reviews     int
	Forgot      int
	Hard        int
	Easy        int
	CardsUnique int
}

func (s AggregateStatistics) RecallRate() float64 {
	return recallRate(s.Hard+s.Easy, s.Reviews)
}

type Result struct {
	Periods   []PeriodStatistics // newest first
	Aggregate AggregateStatistics
}

type periodData struct {
	counts map[srs.Quality]int
	cards  map[int64]struct{}
}

// Calculate summarizes logs. year and month filter by the review time and
// 0 disables the filter; month is ignored without a year.
func Calculate(logs []card.ReviewLog, year, month int) Result {
	stats := make(map[string]*periodData)
	globalCards := make(map[int64]struct{})

	for _, log := range logs {
		if log.ReviewedAt.IsZero() {
			continue
		}
		logYear := log.ReviewedAt.Year()
		logMonth := int(log.ReviewedAt.Month())
		if !matchesFilter(logYear, logMonth, year, month) {
			continue
		}

		period := fmt.Sprintf("%d-%02d", logYear, logMonth)
		data, ok := stats[period]
		if !ok {
			data = &periodData{
				counts: make(map[srs.Quality]int),
				cards:  make(map[int64]struct{}),
			}
			stats[period] = data
		}
		data.counts[log.Quality]++
		data.cards[log.CardID] = struct{}{}
		globalCards[log.CardID] = struct{}{}
	}

	return buildResult(stats, globalCards)
}

func matchesFilter(logYear, logMonth, filterYear, filterMonth int) bool {
	if filterYear == 0 {
		return true
	}
	if logYear != filterYear {
		return false
	}
	if filterMonth == 0 {
		return true
	}
	return logMonth == filterMonth
}

func buildResult(stats map[string]*periodData, globalCards map[int64]struct{}) Result {
	periods := make([]PeriodStatistics, 0, len(stats))
	aggregate := AggregateStatistics{CardsUnique: len(globalCards)}

	for period, data := range stats {
		p := PeriodStatistics{
			Period:      period,
			Forgot:      data.counts[srs.Forgot],
			Hard:        data.counts[srs.Hard],
			Easy:        data.counts[srs.Easy],
			CardsUnique: len(data.cards),
		}
		p.Reviews = p.Forgot + p.Hard + p.Easy
		periods = append(periods, p)

		aggregate.Reviews += p.Reviews
		aggregate.Forgot += p.Forgot
		aggregate.Hard += p.Hard
		aggregate.Easy += p.Easy
	}

	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period > periods[j].Period
	})

	return Result{
		Periods:   periods,
		Aggregate: aggregate,
	}
}

func recallRate(recalled, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(recalled) / float64(total)
}
