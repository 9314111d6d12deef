package commands

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Prefix marca uma linha de comando
const Prefix = "!"

// ParseLine separa "!bet A_B_1 home 50" em nome e argumentos
// Aspas duplas agrupam palavras: !creategame "Kansas City" Buffalo ...
func ParseLine(line string) (name string, args []string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, Prefix) {
		return "", nil, false
	}
	fields := splitFields(strings.TrimPrefix(line, Prefix))
	if len(fields) == 0 || fields[0] == "" {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func splitFields(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case unicode.IsSpace(r) && !quoted:
			if pending {
				out = append(out, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if pending {
		out = append(out, cur.String())
	}
	return out
}

func parseAmount(c *Command, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$"), 10, 64)
	if err != nil {
		return 0, &UsageError{Command: c.Name, Usage: c.Usage, Reason: "invalid amount " + strconv.Quote(s)}
	}
	return n, nil
}

func parseOdds(c *Command, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &UsageError{Command: c.Name, Usage: c.Usage, Reason: "invalid odds " + strconv.Quote(s)}
	}
	return v, nil
}

// startLayout é o formato aceito pelo creategame (UTC)
const startLayout = "2006-01-02 15:04"

// parseStart aceita "YYYY-MM-DD HH:MM" (UTC) ou RFC3339
func parseStart(c *Command, parts []string) (time.Time, error) {
	s := strings.Join(parts, " ")
	if t, err := time.ParseInLocation(startLayout, s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &UsageError{Command: c.Name, Usage: c.Usage, Reason: "invalid time format, use YYYY-MM-DD HH:MM (UTC)"}
}

func parseSwitch(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1", "enable", "enabled":
		return true, true
	case "off", "false", "no", "0", "disable", "disabled":
		return false, true
	}
	return false, false
}
