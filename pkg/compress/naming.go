package compress

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Reduction is the size saving in percent, rounded to one decimal. It is
// negative when the output grew and 0 when either size is unknown.
func Reduction(original, compressed int) float64 {
	if original <= 0 || compressed <= 0 {
		return 0
	}
	r := float64(original-compressed) / float64(original) * 100
	return math.Round(r*10) / 10
}

// OutputName derives the download name for an encoded source:
// "photo.final.png" becomes "photo-compressed.jpeg". Everything from the
// first dot of the base name on is dropped; an empty stem becomes "image".
func OutputName(sourceName string, f ImageFormat) string {
	stem := filepath.Base(sourceName)
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	if stem == "" || stem == "/" {
		stem = "image"
	}
	return stem + "-compressed." + string(f)
}

var byteUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatBytes renders n with 1024-based units and at most two decimals,
// e.g. "0 Bytes", "512 Bytes", "1.5 KB".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return fmt.Sprintf("%s %s", strconv.FormatFloat(v, 'f', -1, 64), byteUnits[i])
}
