// Package handlers implements the relay's inbound event handling: one
// Handler per recognized event type, registered on the server's dispatch
// table at startup.
package handlers

import "RelayGate/service/relay"

// RegisterAll installs every handler on the server's dispatch table.
func RegisterAll(s *relay.Server) {
	d := s.Dispatcher()
	d.Register(NewUserJoinHandler())
	d.Register(NewJoinChannelsHandler())
	d.Register(NewUsageHandler())
	d.Register(NewChatEventHandler())
	d.Register(NewChannelEventHandler())
	d.Register(NewChannelJoinHandler())
	d.Register(NewChannelLeaveHandler())
	d.Register(NewPresenceStatusHandler())
	d.Register(NewTypingStartHandler())
	d.Register(NewTypingStopHandler())
}
