package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Inline substitutes the bind arguments of q into its SQL text. The result is
// for display only and must never be executed.
func Inline(d Dialect, q Query) string {
	var b strings.Builder
	sql := q.SQL
	next := 0
	inString := false

	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch == '\'' {
			inString = !inString
			b.WriteByte(ch)
			continue
		}
		if inString {
			b.WriteByte(ch)
			continue
		}

		switch {
		case !d.Numbered && ch == '?':
			b.WriteString(literal(argAt(q.Args, next)))
			next++
		case d.Numbered && ch == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j == i+1 {
				b.WriteByte(ch)
				continue
			}
			n, _ := strconv.Atoi(sql[i+1 : j])
			b.WriteString(literal(argAt(q.Args, n-1)))
			i = j - 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func argAt(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quote(x)
	case []byte:
		return quote(string(x))
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return quote(x.Format(time.RFC3339Nano))
	case fmt.Stringer:
		return quote(x.String())
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(x)
	default:
		return quote(fmt.Sprint(x))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
