package memory

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Byte size units
const (
	Kilobyte uint64 = 1024
	Megabyte        = Kilobyte * 1024
	Gigabyte        = Megabyte * 1024
)

// GigabytesToBytes converts a size in gigabytes, as stored in the
// configuration, to bytes. Negative values are treated as zero.
func GigabytesToBytes(gb float64) uint64 {
	if gb <= 0 || math.IsNaN(gb) {
		return 0
	}
	return uint64(gb * float64(Gigabyte))
}

// BytesToGigabytes converts bytes to gigabytes
func BytesToGigabytes(b uint64) float64 {
	return float64(b) / float64(Gigabyte)
}

// FormatSize renders a byte count for display, e.g. "1.5 GiB"
func FormatSize(b uint64) string {
	return humanize.IBytes(b)
}
