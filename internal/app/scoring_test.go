package app

import (
	"testing"

	"quiz-live-service/internal/domain"
)

func TestPointUnit(t *testing.T) {
	cases := []struct {
		name string
		q    domain.Question
		want float64
	}{
		{
			name: "full points",
			q: domain.Question{MaxPoints: 10, Answers: []domain.Answer{
				{ID: 1, Correct: true}, {ID: 2}, {ID: 3},
			}},
			want: 10,
		},
		{
			name: "partial split evenly",
			q: domain.Question{MaxPoints: 9, PartialPoints: true, Answers: []domain.Answer{
				{ID: 1, Correct: true}, {ID: 2, Correct: true}, {ID: 3, Correct: true}, {ID: 4},
			}},
			want: 3,
		},
		{
			name: "partial rounds to two decimals",
			q: domain.Question{MaxPoints: 10, PartialPoints: true, Answers: []domain.Answer{
				{ID: 1, Correct: true}, {ID: 2, Correct: true}, {ID: 3, Correct: true},
			}},
			want: 3.33,
		},
		{
			name: "partial with no correct options falls back to max",
			q: domain.Question{MaxPoints: 5, PartialPoints: true, Answers: []domain.Answer{
				{ID: 1}, {ID: 2},
			}},
			want: 5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := pointUnit(tc.q); got != tc.want {
				t.Fatalf("pointUnit = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := newRoomCode()
		if len(code) != roomCodeLength {
			t.Fatalf("expected %d chars, got %q", roomCodeLength, code)
		}
		for _, c := range code {
			if c == '0' || c == 'O' || c == '1' || c == 'I' {
				t.Fatalf("ambiguous character in code %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 99 {
		t.Fatalf("codes look non-random: %d distinct of 100", len(seen))
	}
}
