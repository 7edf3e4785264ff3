package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quiz-live-service/internal/app"
)

func TestRoomStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStore(client, time.Minute)

	if !store.PutIfAbsent("QW23XYZ", &app.Room{}) {
		t.Fatalf("expected first put to win")
	}
	if !mr.Exists("room:live:QW23XYZ") {
		t.Fatalf("expected redis liveness key to be set")
	}
	if store.PutIfAbsent("QW23XYZ", &app.Room{}) {
		t.Fatalf("expected colliding code to be rejected")
	}

	store.Delete("QW23XYZ")
	if mr.Exists("room:live:QW23XYZ") {
		t.Fatalf("expected redis liveness key to be removed")
	}
	if _, ok := store.Get("QW23XYZ"); ok {
		t.Fatalf("expected room to be gone")
	}
}
