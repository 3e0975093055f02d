package conf

var (
	Conf *Config

	// URLBase prefixes links rendered into exports.
	URLBase = "https://www.bilibili.com/video/"
)

const (
	// Media record statuses.
	StatusProcessing  = "processing"
	StatusTranscribed = "transcribed"
	StatusFailed      = "failed"
)
