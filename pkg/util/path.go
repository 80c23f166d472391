package util

import "strings"

// 等于号和问号会影响 ffmpeg 参数解析，一并替换掉
var pathNameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_",
	"?", "_", "\"", "_", "<", "_", ">", "_",
	"|", "_", " ", "_", "=", "_",
)

// SanitizePathName replaces characters that are unsafe in file names or
// awkward as ffmpeg arguments with underscores.
func SanitizePathName(name string) string {
	return pathNameReplacer.Replace(name)
}

// TruncateRunes shortens s to at most n runes.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
