package utils

import "time"

const downloadTimeLayout = "20060102_150405"

// DownloadFilename names the text file offered for download. The timestamp
// sorts lexically in generation order.
func DownloadFilename(generatedAt time.Time) string {
	return "recognized_text_" + generatedAt.Format(downloadTimeLayout) + ".txt"
}
