package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode entry with the facts
// in a PROPERTIES drawer and an empty review section.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** %s %s %s (%s)\n",
		t.CloseTime.UTC().Format("2006-01-02"), strings.ToUpper(t.Side), t.Instrument, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":INSTRUMENT: %s\n", t.Instrument)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":QUANTITY: %d\n", t.Quantity)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.4f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.4f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":REALIZED_PL: %.2f\n", t.RealizedPL)
	fmt.Fprintf(&b, ":EXIT: %s\n", t.Reason)
	b.WriteString(":END:\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders trades followed by a summary line.
func FormatTradesOrg(trades []TradeRecord) string {
	if len(trades) == 0 {
		return "# no trades"
	}

	var b strings.Builder
	for _, t := range trades {
		b.WriteString(FormatTradeOrg(t))
		b.WriteString("\n")
	}

	s := Summarize(trades)
	fmt.Fprintf(&b, "# trades=%d wins=%d net=%.2f profit_factor=%.2f", s.Trades, s.Wins, s.NetPL, s.ProfitFactor)
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
