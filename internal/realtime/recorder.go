package realtime

// Recorder receives realtime counters. *metrics.Metrics satisfies it.
type Recorder interface {
	ConnectionOpened()
	ConnectionClosed()
	OnlineUsers(n int)
	EventDelivered(event string)
	EventDropped(event, reason string)
	EventReceived(event, status string)
}

type nopRecorder struct{}

func (nopRecorder) ConnectionOpened()            {}
func (nopRecorder) ConnectionClosed()            {}
func (nopRecorder) OnlineUsers(int)              {}
func (nopRecorder) EventDelivered(string)        {}
func (nopRecorder) EventDropped(string, string)  {}
func (nopRecorder) EventReceived(string, string) {}
