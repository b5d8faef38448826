package proto

// ServerPrefix marks lines generated by the server rather than a peer.
const ServerPrefix = "[server]"

// Terminator ends every line the server writes.
const Terminator = "\n"

// JoinLine announces that nick entered the room.
func JoinLine(nick string) string {
	return ServerPrefix + " " + CommandJoin + " " + nick
}

// LeaveLine announces that nick left the room.
func LeaveLine(nick string) string {
	return ServerPrefix + " " + CommandLeave + " " + nick
}

// QuitLine announces that nick disconnected.
func QuitLine(nick string) string {
	return ServerPrefix + " " + CommandQuit + " " + nick
}

// ChatLine relays a chat message from nick.
func ChatLine(nick, text string) string {
	return nick + ": " + text
}
