package app

import (
	"crypto/rand"
	"strings"
)

// codeAlphabet avoids 0/O and 1/I so codes stay typable from a projector.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const roomCodeLength = 7

// newRoomCode returns a short human-typable code. Uniqueness among live rooms
// is the caller's job (collision retry against the room store).
func newRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic(err)
	}
	var b strings.Builder
	b.Grow(roomCodeLength)
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String()
}

// newGuestName labels connections that never supplied a display name.
func newGuestName() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	var b strings.Builder
	b.WriteString("Guest-")
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String()
}
