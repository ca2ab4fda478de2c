package mover

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize 按 1024 进位格式化文件大小，保留一位小数，最大单位 TB
func FormatSize(size int64) string {
	value := float64(size)
	for _, unit := range sizeUnits {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}
