package domain

import "github.com/google/uuid"

// RoomKind discriminates the three broadcast targets the registry knows.
type RoomKind int

const (
	RoomPersonal RoomKind = iota + 1
	RoomServer
	RoomSystem
)

// RoomID is a tagged room identifier. The kind is fixed at construction so
// a personal room can never be confused with a server room by string
// convention.
type RoomID struct {
	kind RoomKind
	id   uuid.UUID
}

// PersonalRoom is the per-user room used for direct-message delivery and
// sender acknowledgments.
func PersonalRoom(userID uuid.UUID) RoomID {
	return RoomID{kind: RoomPersonal, id: userID}
}

// ServerRoom is the shared room of a server's live members.
func ServerRoom(serverID uuid.UUID) RoomID {
	return RoomID{kind: RoomServer, id: serverID}
}

// SystemRoom is the all-connections room used for presence snapshots.
func SystemRoom() RoomID {
	return RoomID{kind: RoomSystem}
}

func (r RoomID) Kind() RoomKind { return r.kind }

// Owner returns the user or server id the room is keyed by. Zero for the
// system room.
func (r RoomID) Owner() uuid.UUID { return r.id }

func (r RoomID) String() string {
	switch r.kind {
	case RoomPersonal:
		return "user:" + r.id.String()
	case RoomServer:
		return "server:" + r.id.String()
	case RoomSystem:
		return "system"
	}
	return "unknown"
}
