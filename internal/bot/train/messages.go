package train

import (
	"fmt"
	"strings"

	"github.com/railbot/train-linebot-go/internal/ticket"
)

// seatEmoji maps seat class names to display emoji.
var seatEmoji = map[string]string{
	"硬座":  "💺",
	"软座":  "🪑",
	"硬卧":  "🛏️",
	"软卧":  "🛌",
	"无座":  "🚶",
	"商务座": "💎",
	"一等座": "💺",
	"二等座": "🪑",
}

const fallbackSeatEmoji = "🎫"

// availabilityGlyph derives a glyph from the upstream status text.
// The API answers with free-form phrases like "充足" or "紧张".
func availabilityGlyph(status string) string {
	switch {
	case strings.Contains(status, "充足"):
		return "✅"
	case strings.Contains(status, "紧张"):
		return "⚠️"
	default:
		return "❌"
	}
}

// buildListText renders the numbered candidate list, at most max rows.
func buildListText(q ticket.Query, trains []ticket.Train, max int) string {
	shown := trains
	if len(shown) > max {
		shown = shown[:max]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🚄 %s → %s（%s）共 %d 个车次\n", q.Departure, q.Arrival, q.Date, len(trains))
	for i, t := range shown {
		fmt.Fprintf(&b, "\n%d. %s  %s → %s  历时%s", i+1, t.TrainNumber, t.DepartTime, t.DestTime, t.TotalTime)
	}
	return b.String()
}

// buildSelectionPrompt renders the digit prompt shown after the list.
func buildSelectionPrompt(shown int) string {
	return fmt.Sprintf("回复数字 1-%d 查看对应车次的详细信息", shown)
}

// buildDetailText renders the full breakdown of one train.
func buildDetailText(t ticket.Train) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚄 %s（%s）\n", t.TrainNumber, t.TrainType)
	fmt.Fprintf(&b, "🕐 %s → %s  历时%s\n", t.DepartTime, t.DestTime, t.TotalTime)
	fmt.Fprintf(&b, "📍 %s → %s\n", t.Depart, t.Dest)

	if len(t.Seats) > 0 {
		b.WriteString("\n座位情况：")
		for _, seat := range t.Seats {
			emoji, ok := seatEmoji[seat.Name]
			if !ok {
				emoji = fallbackSeatEmoji
			}
			fmt.Fprintf(&b, "\n%s %s  %s %s  %s元",
				emoji, seat.Name, availabilityGlyph(seat.Status), seat.Status, seat.Price)
		}
	}

	return b.String()
}
