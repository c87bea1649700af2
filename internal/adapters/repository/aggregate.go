package repository

import (
	"time"

	"github.com/okian/emotrack/internal/domain/emotion"
	"github.com/okian/emotrack/internal/domain/model"
)

const percentScale = 100.0

// windowStart returns local midnight of the first day in a trailing window of
// the given size ending today.
func windowStart(now time.Time, days int) time.Time {
	day := now.Local()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	return start.AddDate(0, 0, -(days - 1))
}

// groupDaily buckets observations into calendar days, prefilled so every day
// of the window appears even with zero observations.
func groupDaily(observations []model.Observation, days int, now time.Time) DailyDistribution {
	dist := make(DailyDistribution, days)
	start := windowStart(now, days)
	for i := 0; i < days; i++ {
		dist[start.AddDate(0, 0, i).Format(DateFormat)] = map[emotion.Emotion]int64{}
	}

	for _, obs := range observations {
		day := timestampTime(obs.Timestamp).Local().Format(DateFormat)
		if counts, ok := dist[day]; ok {
			counts[obs.Emotion]++
		}
	}
	return dist
}

// distributionFrom turns raw per-emotion counts into count+percentage stats.
func distributionFrom(counts map[emotion.Emotion]int64, total int64) map[emotion.Emotion]EmotionStat {
	dist := make(map[emotion.Emotion]EmotionStat, len(counts))
	for e, c := range counts {
		stat := EmotionStat{Count: c}
		if total > 0 {
			stat.Percentage = float64(c) / float64(total) * percentScale
		}
		dist[e] = stat
	}
	return dist
}

// timestampTime converts epoch seconds (float, sub-second precision) to a
// time.Time.
func timestampTime(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec)
}
