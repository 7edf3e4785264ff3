package memory

import (
	"testing"

	"quiz-live-service/internal/app"
)

func TestRoomStorePutIfAbsent(t *testing.T) {
	store := NewRoomStore()

	if !store.PutIfAbsent("AAAAAAA", &app.Room{}) {
		t.Fatalf("expected first put to win")
	}
	if store.PutIfAbsent("AAAAAAA", &app.Room{}) {
		t.Fatalf("expected colliding put to lose")
	}
	if _, ok := store.Get("AAAAAAA"); !ok {
		t.Fatalf("expected room to be retrievable")
	}

	store.Delete("AAAAAAA")
	if _, ok := store.Get("AAAAAAA"); ok {
		t.Fatalf("expected room to be gone after delete")
	}
}
