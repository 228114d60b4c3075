package notify

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alias1177/oracle/models"
)

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func directionMark(d models.Direction) string {
	switch d {
	case models.Buy:
		return "🔼"
	case models.Sell:
		return "🔽"
	default:
		return "⚖️"
	}
}

// FormatSignal renders a signal as a Telegram Markdown message.
func FormatSignal(s *models.Signal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("*%s (%s)*\n", esc(s.Instrument.DisplayName()), esc(s.Instrument.Symbol)))
	b.WriteString(fmt.Sprintf("%s\n\n", s.Timestamp.UTC().Format("2006-01-02 15:04 MST")))

	b.WriteString(fmt.Sprintf("*Direction:* %s %s\n", directionMark(s.Direction), s.Direction))
	b.WriteString(fmt.Sprintf("*Price:* %.5f\n", s.Price))
	b.WriteString(fmt.Sprintf("*Trend:* %s | *Pattern:* %s | *Volatility:* %s\n", esc(string(s.Trend)), esc(string(s.Pattern)), esc(string(s.Volatility))))
	b.WriteString(fmt.Sprintf("*Risk Level:* %s\n\n", s.RiskLevel))

	b.WriteString(fmt.Sprintf("*VTI:* %d/3 %s (confidence %d%%)\n", s.VTI.Score, s.VTI.Status, s.VTI.Confidence))
	for _, p := range s.VTI.Pillars() {
		mark := "❌"
		if p.Valid {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s: %d\n", mark, esc(p.Name), p.Score))
		for _, line := range p.Rationale {
			b.WriteString(fmt.Sprintf("  • %s\n", esc(line)))
		}
	}

	if s.Risk != nil {
		r := s.Risk
		b.WriteString("\n*Trade Plan:*\n")
		b.WriteString(fmt.Sprintf("Stop Loss: %.5f (%.5f away)\n", r.StopLoss, r.StopDistance))
		for i, tp := range r.TakeProfits {
			b.WriteString(fmt.Sprintf("TP%d: %.5f (R:R %.2f)\n", i+1, tp.Price, tp.RewardRisk))
		}
		b.WriteString(fmt.Sprintf("Position: %.4f units (%.2f)\n", r.PositionSize, r.PositionValue))
		b.WriteString(fmt.Sprintf("Risk: %.2f (%.1f%%)\n", r.RiskAmount, r.RiskPercent))
	}

	if !s.Levels.Empty() {
		b.WriteString("\n*Levels:*\n")
		if len(s.Levels.Resistances) > 0 {
			b.WriteString("Resistance: " + joinPrices(s.Levels.Resistances) + "\n")
		}
		if len(s.Levels.Supports) > 0 {
			b.WriteString("Support: " + joinPrices(s.Levels.Supports) + "\n")
		}
	}

	if len(s.Confirmations) > 0 {
		b.WriteString("\n*Confirmations:*\n")
		for i, c := range s.Confirmations {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, esc(c)))
		}
	}

	return b.String()
}

func joinPrices(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.5f", l)
	}
	return strings.Join(parts, ", ")
}
