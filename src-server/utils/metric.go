package utils

type Metric struct {
	DatabaseRead chan float64
	FeedBuild    chan float64
	FeedServed   chan string
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseRead: make(chan float64),
		FeedBuild:    make(chan float64),
		FeedServed:   make(chan string),
	}
}

// Non-blocking send so routes keep working when the metric
// collectors aren't running (e.g. in tests).
func SendLatency(ch chan float64, value float64) {
	select {
	case ch <- value:
	default:
	}
}

func SendOutcome(ch chan string, outcome string) {
	select {
	case ch <- outcome:
	default:
	}
}
