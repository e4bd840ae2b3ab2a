package presence

import "log/slog"

// Event names pushed to clients over the live transport.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
)

// BroadcastOnline pushes the given online-user snapshot to every connection.
// Send failures are logged and skipped; a dead connection is reaped by its own
// lifecycle handler, not here.
func BroadcastOnline(conns []Conn, ids []string) {
	for _, c := range conns {
		if err := c.Send(EventOnlineUsers, ids); err != nil {
			slog.Warn("online broadcast failed", "error", err)
		}
	}
}
