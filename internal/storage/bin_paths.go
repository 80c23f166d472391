package storage

// 依赖检查阶段解析出的可执行文件位置。为空表示尚未解析，
// 调用方回退到 PATH 上的命令名。
var (
	FfmpegPath  = ""
	FfprobePath = ""
)
