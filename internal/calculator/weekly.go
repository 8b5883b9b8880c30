package calculator

import "github.com/bantoinese83/Portfolio-Watchdog/internal/model"

// ResampleWeekly converts daily bars into ISO calendar-week bars.
// Open is the first open, High the max, Low the min, Close the last close and Volume the sum.
// The weekly bar carries the time of the first daily bar of its week.
func ResampleWeekly(daily []model.OHLCV) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	weekly := make([]model.OHLCV, 0, len(daily)/5+1)
	var week model.OHLCV
	var currentKey int

	for i, d := range daily {
		year, isoWeek := d.Time.ISOWeek()
		key := year*100 + isoWeek

		if i == 0 || key != currentKey {
			if i > 0 {
				weekly = append(weekly, week)
			}
			week = d
			currentKey = key
			continue
		}
		if d.High > week.High {
			week.High = d.High
		}
		if d.Low < week.Low {
			week.Low = d.Low
		}
		week.Close = d.Close
		week.Volume += d.Volume
	}
	return append(weekly, week)
}
