package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room code matches no live room.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomAlreadyStarted rejects joins once play has begun.
	ErrRoomAlreadyStarted = errors.New("room already started")
	// ErrNotHost is returned when a privileged operation comes from a non-host.
	ErrNotHost = errors.New("not the room host")
	// ErrQuizNotFound indicates the snapshot loader found no such quiz.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoQuizLoaded indicates an advance attempt before any quiz was set.
	ErrNoQuizLoaded = errors.New("no quiz loaded")
)
