package main

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits the way the CLI output expects ("1,234,567").
var printer = message.NewPrinter(language.English)

func formatNumber[T ~int | ~int64 | ~uint64](n T) string {
	return printer.Sprintf("%d", n)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return printer.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
