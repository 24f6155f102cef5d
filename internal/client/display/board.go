// Package display renders server responses for the API client.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// RenderBoard writes the server's ASCII board with colored pieces and labels.
// White pieces are blue, black pieces red.
func RenderBoard(w io.Writer, asciiBoard string) {
	lines := strings.Split(asciiBoard, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		labelLine := i == 0 || i == len(lines)-1

		var sb strings.Builder
		for _, ch := range line {
			switch {
			case labelLine && ch >= 'a' && ch <= 'h', ch >= '1' && ch <= '8':
				sb.WriteString(Cyan + string(ch) + Reset)
			case ch >= 'A' && ch <= 'Z':
				sb.WriteString(Blue + string(ch) + Reset)
			case ch >= 'a' && ch <= 'z':
				sb.WriteString(Red + string(ch) + Reset)
			default:
				sb.WriteRune(ch)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

// ColorForTurn returns a colored side name for "w" or "b".
func ColorForTurn(turn string) string {
	if turn == "w" {
		return Blue + "White" + Reset
	}
	return Red + "Black" + Reset
}

// PrettyJSON writes v as indented JSON.
func PrettyJSON(w io.Writer, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(w, "%sError formatting JSON: %s%s\n", Red, err, Reset)
		return
	}
	fmt.Fprintln(w, string(data))
}
