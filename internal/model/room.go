package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// RoomStatus represents whether a room is accepting players or running a game
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting"
	RoomStatusPlaying RoomStatus = "playing"
)

// DefaultRoomCapacity is the seat limit for rooms created without an explicit capacity
const DefaultRoomCapacity = 8

// Room is a lobby/game container
type Room struct {
	ID        RoomID     `json:"id"`
	Name      string     `json:"name"`
	Capacity  int        `json:"capacity"`
	Occupancy int        `json:"occupancy"`
	Status    RoomStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsFull returns true if every seat is taken
func (r Room) IsFull() bool {
	return r.Occupancy >= r.Capacity
}

// Topic helpers for the broadcaster

// LobbyTopic carries the global room list
const LobbyTopic = "rooms"

// RoomTopic returns the topic all subscribers of a room listen on
func RoomTopic(id RoomID) string {
	return "room:" + string(id)
}

// PlayerTopic returns the topic addressing a single player's connection
func PlayerTopic(id PlayerID) string {
	return "player:" + string(id)
}
