package http

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-unix/internal/core"
	"github.com/vovakirdan/wirechat-unix/internal/store"
)

// ClientResponse describes one connected client.
type ClientResponse struct {
	Identity    int       `json:"identity"`
	Session     string    `json:"session"`
	Nickname    string    `json:"nickname"`
	Room        *int      `json:"room"`
	Mode        string    `json:"mode"`
	Buffered    int       `json:"buffered"`
	ConnectedAt time.Time `json:"connected_at"`
}

// RoomResponse describes a room that currently has members.
type RoomResponse struct {
	ID      int      `json:"id"`
	Members []string `json:"members"`
}

// SessionResponse describes one journaled connection session.
type SessionResponse struct {
	ID          string     `json:"id"`
	Identity    int        `json:"identity"`
	Nickname    string     `json:"nickname"`
	OpenedAt    time.Time  `json:"opened_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func clientsToResponse(infos []core.ClientInfo) []ClientResponse {
	return lo.Map(infos, func(info core.ClientInfo, _ int) ClientResponse {
		var room *int
		if info.Room != core.NoRoom {
			id := int(info.Room)
			room = &id
		}
		return ClientResponse{
			Identity:    info.Identity,
			Session:     info.Session,
			Nickname:    info.Nickname,
			Room:        room,
			Mode:        info.Mode.String(),
			Buffered:    info.Buffered,
			ConnectedAt: info.ConnectedAt,
		}
	})
}

// roomsFromClients derives rooms from membership; a room exists only while a
// client references it.
func roomsFromClients(infos []core.ClientInfo) []RoomResponse {
	members := lo.Filter(infos, func(info core.ClientInfo, _ int) bool {
		return info.Room != core.NoRoom
	})
	grouped := lo.GroupBy(members, func(info core.ClientInfo) core.RoomID {
		return info.Room
	})

	rooms := make([]RoomResponse, 0, len(grouped))
	for id, clients := range grouped {
		rooms = append(rooms, RoomResponse{
			ID: int(id),
			Members: lo.Map(clients, func(info core.ClientInfo, _ int) string {
				return info.Nickname
			}),
		})
	}
	slices.SortFunc(rooms, func(a, b RoomResponse) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return rooms
}

func sessionsToResponse(sessions []store.Session) []SessionResponse {
	return lo.Map(sessions, func(s store.Session, _ int) SessionResponse {
		return SessionResponse{
			ID:          s.ID,
			Identity:    s.Identity,
			Nickname:    s.Nickname,
			OpenedAt:    s.OpenedAt,
			ClosedAt:    s.ClosedAt,
			CloseReason: s.CloseReason,
		}
	})
}
