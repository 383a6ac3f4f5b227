package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		lifetime int
		level    string
		next     int
	}{
		{"zero points is the first tier", 0, "Новичок", 100},
		{"just under a threshold", 99, "Новичок", 100},
		{"exactly on a threshold", 100, "Кофеман", 250},
		{"mid tier", 420, "Бариста-Шеф", 500},
		{"exactly top threshold", 1000, "Кофейный Монарх", 1000},
		{"beyond the top tier", 5000, "Кофейный Монарх", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, next := Resolve(tt.lifetime)
			assert.Equal(t, tt.level, level.Name)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestResolvePicksHighestEligibleTier(t *testing.T) {
	for lifetime := 0; lifetime <= 1200; lifetime += 7 {
		level, _ := Resolve(lifetime)

		require.LessOrEqual(t, level.PointsRequired, lifetime)
		for _, l := range Levels() {
			if l.PointsRequired <= lifetime {
				assert.GreaterOrEqual(t, level.PointsRequired, l.PointsRequired,
					"lifetime=%d picked %q but %q also qualifies", lifetime, level.Name, l.Name)
			}
		}
	}
}

func TestEarnedPoints(t *testing.T) {
	assert.Equal(t, 25, EarnedPoints(500, 0))
	assert.Equal(t, 14, EarnedPoints(299, 0), "cashback rounds down")
	assert.Equal(t, 0, EarnedPoints(500, 1), "any redemption voids cashback")
	assert.Equal(t, 0, EarnedPoints(0, 0))
}

func TestMaxRedeemable(t *testing.T) {
	assert.Equal(t, 500, MaxRedeemable(1000, 800), "capped at half the subtotal")
	assert.Equal(t, 120, MaxRedeemable(1000, 120), "capped at the balance")
	assert.Equal(t, 0, MaxRedeemable(0, 800))
}

func TestLevelsReturnsCopy(t *testing.T) {
	ls := Levels()
	ls[0].Name = "mutated"

	level, _ := Resolve(0)
	assert.Equal(t, "Новичок", level.Name)
}
