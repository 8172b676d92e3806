//go:build blackbox

package blackbox

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

func contains(s, sub string) bool { return strings.Contains(s, sub) }

type row struct {
	t          time.Time
	o, h, l, c float64
}

func writeBarsCSV(t *testing.T, path string, rows []row) {
	t.Helper()

	var b strings.Builder
	b.WriteString("time,open,high,low,close,volume\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%.4f,%.4f,%.4f,%.4f,1000\n", r.t.Format(time.RFC3339), r.o, r.h, r.l, r.c)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
