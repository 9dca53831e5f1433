package texblend

const (
	channels = 3

	maxSample      = 255.0
	overlayPivot   = 127.0
	defaultWeight  = 1.0
	defaultTaskTag = "task"
)
