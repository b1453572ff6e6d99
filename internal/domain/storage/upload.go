package storage

import (
	"math"
	"strconv"
)

// UploadProgress is the progress of one file upload.
type UploadProgress struct {
	Percentage     float64 `json:"percentage"`
	Elapsed        float64 `json:"elapsed"`
	UploadSpeed    float64 `json:"uploadSpeed"`
	RemainingBytes float64 `json:"remainingBytes"`
	RemainingTime  float64 `json:"remainingTime"`
}

// FormatTime renders a duration in seconds using only its largest unit, e.g.
// "2d ", "3h ", "5m " or "42s".
func FormatTime(seconds float64) string {
	days := math.Floor(seconds / (24 * 3600))
	seconds = math.Mod(seconds, 24*3600)
	hours := math.Floor(seconds / 3600)
	seconds = math.Mod(seconds, 3600)
	minutes := math.Floor(seconds / 60)
	seconds = math.Floor(math.Mod(seconds, 60))

	switch {
	case days > 0:
		return formatUnit(days) + "d "
	case hours > 0:
		return formatUnit(hours) + "h "
	case minutes > 0:
		return formatUnit(minutes) + "m "
	}
	return formatUnit(seconds) + "s"
}

func formatUnit(v float64) string {
	if v == 0 {
		v = 0 // drop the sign of -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// CalculateTotalRemainingTime estimates the remaining time of a batch of
// uploads, weighting each upload by its share of the bytes seen so far.
func CalculateTotalRemainingTime(progresses []UploadProgress) float64 {
	var totalTime, totalBytes float64
	for _, p := range progresses {
		totalBytes += p.RemainingBytes
		if totalBytes == 0 {
			continue
		}
		weight := p.RemainingBytes / totalBytes
		totalTime += weight * p.RemainingTime
	}
	return totalTime
}
