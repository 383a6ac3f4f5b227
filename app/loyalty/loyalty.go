// Package loyalty implements the level table and the points arithmetic used
// by checkout and the QR award flow.
package loyalty

// Points rules.
const (
	// EarnPercent is the cashback rate applied when no points are redeemed.
	EarnPercent = 5
	// RedeemCapPercent limits redemption to half of the cart subtotal.
	RedeemCapPercent = 50
	// QRAwardPoints is the fixed grant per confirmed QR scan.
	QRAwardPoints = 12
)

// Level is one loyalty tier. PointsRequired thresholds are strictly
// ascending across the table.
type Level struct {
	ID             string
	Name           string
	Description    string
	PointsRequired int
	Icon           string
	Color          string
}

var levels = []Level{
	{ID: "1", Name: "Новичок", Description: "Ваше первое знакомство с H🪶STORY. Добро пожаловать в семью!", PointsRequired: 0, Icon: "🐣", Color: "bg-emerald-400"},
	{ID: "2", Name: "Кофеман", Description: "Вы уже знаете разницу между латте и капучино. Так держать!", PointsRequired: 100, Icon: "☕", Color: "bg-amber-400"},
	{ID: "3", Name: "Бариста-Шеф", Description: "Ваш вкус становится изысканнее. Вы настоящий эксперт!", PointsRequired: 250, Icon: "🧑‍🍳", Color: "bg-orange-500"},
	{ID: "4", Name: "Магистр Эспрессо", Description: "Вы повелеваете кофейными зернами. Легендарный уровень!", PointsRequired: 500, Icon: "🪄", Color: "bg-stone-600"},
	{ID: "5", Name: "Кофейный Монарх", Description: "Вы достигли вершины. Весь мир H🪶STORY у ваших ног!", PointsRequired: 1000, Icon: "👑", Color: "bg-yellow-500"},
}

// Levels returns a copy of the tier table, lowest threshold first.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// Resolve returns the current tier for lifetimePoints plus the threshold of
// the next tier. At the top tier the current threshold is returned as the
// sentinel; progress consumers treat current >= next as maxed out.
func Resolve(lifetimePoints int) (Level, int) {
	current := levels[0]
	for _, l := range levels {
		if lifetimePoints >= l.PointsRequired {
			current = l
		} else {
			break
		}
	}

	next := current.PointsRequired
	for _, l := range levels {
		if l.PointsRequired > lifetimePoints {
			next = l.PointsRequired
			break
		}
	}
	return current, next
}

// EarnedPoints returns the cashback for an order total. Earning and redeeming
// are mutually exclusive: any redemption voids the cashback.
func EarnedPoints(total, pointsRedeemed int) int {
	if pointsRedeemed > 0 {
		return 0
	}
	return total * EarnPercent / 100
}

// MaxRedeemable caps redemption at half the subtotal and at the available
// balance, whichever is lower.
func MaxRedeemable(subtotal, balance int) int {
	limit := subtotal * RedeemCapPercent / 100
	if balance < limit {
		return balance
	}
	return limit
}
