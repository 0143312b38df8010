package cnst

// Tracer names used across the services
const (
	TraceRealtime = "familia/realtime"
	TraceAPI      = "familia/apiserver"
)

// Span names
const (
	SpanSendMessage      = "realtime.fanout.send_message"
	SpanNotify           = "realtime.fanout.notify"
	SpanWebSocketSession = "realtime.ws.session"
)
