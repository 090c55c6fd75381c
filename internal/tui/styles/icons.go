package styles

const (
	RunningIcon = "▶"
	StoppedIcon = "■"
	CheckIcon   = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠"
	ReaderIcon  = "◉"
	WriterIcon  = "✎"
)
