// Package proto defines the line-oriented wire protocol: parsing one inbound
// line into a command, resolving it to an Action, and formatting the lines the
// server sends to room peers.
package proto

import (
	"strconv"
	"strings"
)

// Command names recognised on the wire.
const (
	CommandNick  = "NICK"
	CommandJoin  = "JOIN"
	CommandLeave = "LEAVE"
	CommandMsg   = "MSG"
	CommandQuit  = "QUIT"
)

// Command is one parsed inbound line.
type Command struct {
	Name string
	// Args is everything after the first space, unmodified.
	Args string
	// HasArgs distinguishes "NAME" from "NAME " (empty payload).
	HasArgs bool
}

// ActionKind tags the side effect a command asks for.
type ActionKind int

const (
	// ActionNone has no effect.
	ActionNone ActionKind = iota
	// ActionDisconnect closes the sender's connection.
	ActionDisconnect
	// ActionSetNickname renames the sender.
	ActionSetNickname
	// ActionJoinRoom moves the sender into Room.
	ActionJoinRoom
	// ActionLeaveRoom removes the sender from its current room.
	ActionLeaveRoom
	// ActionChat broadcasts Text to the sender's room.
	ActionChat
)

var actionNames = [...]string{
	ActionNone:        "none",
	ActionDisconnect:  "disconnect",
	ActionSetNickname: "set_nickname",
	ActionJoinRoom:    "join_room",
	ActionLeaveRoom:   "leave_room",
	ActionChat:        "chat",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[k]
}

// Action is the pure-data result of dispatching a command. Applying it is the
// caller's job.
type Action struct {
	Kind ActionKind
	// Command is the matched table entry, empty for unrecognised lines.
	Command string
	Text    string
	Room    int
}

type commandHandler func(args string) Action

type commandSpec struct {
	name    string
	handler commandHandler
}

// commandTable is scanned in order; the first exact match wins.
var commandTable = []commandSpec{
	{name: CommandNick, handler: handleNick},
	{name: CommandJoin, handler: handleJoin},
	{name: CommandLeave, handler: handleLeave},
	{name: CommandMsg, handler: handleMsg},
	{name: CommandQuit, handler: handleQuit},
}

// Parse splits a line at its first space into a command name and payload.
func Parse(line string) Command {
	name, args, found := strings.Cut(line, " ")
	return Command{Name: name, Args: args, HasArgs: found}
}

// Dispatch parses line and resolves it to an Action. Unknown commands yield
// ActionNone.
func Dispatch(line string) Action {
	cmd := Parse(line)
	spec, ok := lookup(cmd.Name)
	if !ok {
		return Action{Kind: ActionNone}
	}
	action := spec.handler(cmd.Args)
	action.Command = spec.name
	return action
}

func lookup(name string) (commandSpec, bool) {
	for _, spec := range commandTable {
		if len(spec.name) == len(name) && spec.name == name {
			return spec, true
		}
	}
	return commandSpec{}, false
}

func handleNick(args string) Action {
	return Action{Kind: ActionSetNickname, Text: args}
}

func handleJoin(args string) Action {
	room, ok := ParseRoomID(args)
	if !ok {
		return Action{Kind: ActionNone}
	}
	return Action{Kind: ActionJoinRoom, Room: room}
}

func handleLeave(string) Action {
	return Action{Kind: ActionLeaveRoom}
}

func handleMsg(args string) Action {
	return Action{Kind: ActionChat, Text: args}
}

func handleQuit(string) Action {
	return Action{Kind: ActionDisconnect}
}

// ParseRoomID reads a non-negative base-10 room id, ignoring surrounding spaces.
func ParseRoomID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}
