package format

import "strings"

// TruncateLines caps text at maxLines raw lines, appending a trailing "..."
// line when content was dropped.
func TruncateLines(text string, maxLines int) []string {
	lines := strings.Split(text, "\n")
	if maxLines <= 0 || len(lines) <= maxLines {
		return lines
	}
	out := make([]string, 0, maxLines+1)
	out = append(out, lines[:maxLines]...)
	return append(out, "...")
}

// Wrap greedily word-wraps text to the given visible width, honoring existing
// newlines as hard breaks. Words longer than the width are hard-broken into
// width-sized chunks. At most maxLines entries are returned; excess content is
// dropped silently.
func Wrap(text string, width, maxLines int) []string {
	if width <= 0 || maxLines <= 0 {
		return nil
	}
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) >= maxLines {
			break
		}
		out = wrapLine(out, line, width, maxLines)
	}
	if len(out) > maxLines {
		out = out[:maxLines]
	}
	return out
}

// wrapLine appends the wrapped form of a single raw line to out.
func wrapLine(out []string, line string, width, maxLines int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return append(out, "")
	}
	current := ""
	flush := func() []string {
		if current != "" {
			out = append(out, current)
			current = ""
		}
		return out
	}
	for _, word := range words {
		if len(out) >= maxLines {
			return out
		}
		if VisibleWidth(word) > width {
			out = flush()
			for _, chunk := range chunkWord(word, width) {
				if len(out) >= maxLines {
					return out
				}
				out = append(out, chunk)
			}
			continue
		}
		switch {
		case current == "":
			current = word
		case VisibleWidth(current+" "+word) <= width:
			current += " " + word
		default:
			out = flush()
			current = word
		}
	}
	return flush()
}

// chunkWord hard-breaks one overlong word into pieces of exactly width cells
// (the final piece may be narrower).
func chunkWord(word string, width int) []string {
	var chunks []string
	current := strings.Builder{}
	for _, r := range word {
		current.WriteRune(r)
		if VisibleWidth(current.String()) >= width {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
