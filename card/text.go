package card

import "strings"

// Ellipsis marks truncated text.
const Ellipsis = "…"

// WrapText breaks text into lines on word boundaries. A word joins the
// current line while the joined line stays narrower than maxWidth. Words are
// never split; a lone word wider than the column is truncated instead, so no
// line ever measures wider than maxWidth.
func WrapText(m Measurer, text string, style Style, maxWidth float64) ([]string, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		w, err := m.MeasureWidth(current+" "+word, style)
		if err != nil {
			return nil, err
		}
		if w < maxWidth {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)

	for i, line := range lines {
		fitted, err := TruncateText(m, line, style, maxWidth)
		if err != nil {
			return nil, err
		}
		lines[i] = fitted
	}
	return lines, nil
}

// TruncateText returns text unchanged if it fits in maxWidth. Otherwise it
// drops trailing characters until text plus the ellipsis fits, then appends
// the ellipsis. When the column is too narrow for even the ellipsis, the
// longest plain prefix that fits is returned, possibly "". The result always
// fits, so applying it twice gives the same result as applying it once.
func TruncateText(m Measurer, text string, style Style, maxWidth float64) (string, error) {
	w, err := m.MeasureWidth(text, style)
	if err != nil {
		return "", err
	}
	if w <= maxWidth {
		return text, nil
	}

	runes := []rune(text)
	for n := len(runes) - 1; n >= 0; n-- {
		w, err := m.MeasureWidth(string(runes[:n])+Ellipsis, style)
		if err != nil {
			return "", err
		}
		if w <= maxWidth {
			return string(runes[:n]) + Ellipsis, nil
		}
	}

	for n := len(runes) - 1; n > 0; n-- {
		w, err := m.MeasureWidth(string(runes[:n]), style)
		if err != nil {
			return "", err
		}
		if w <= maxWidth {
			return string(runes[:n]), nil
		}
	}
	return "", nil
}
