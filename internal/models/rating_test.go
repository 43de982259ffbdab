package models

import "testing"

func TestIsValidScore(t *testing.T) {
	for score := 1; score <= 5; score++ {
		if !IsValidScore(score) {
			t.Errorf("score %d should be valid", score)
		}
	}
	for _, score := range []int{0, -1, 6, 100} {
		if IsValidScore(score) {
			t.Errorf("score %d should be invalid", score)
		}
	}
}
