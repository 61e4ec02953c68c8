package components

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/artpar/liftoff/internal/tui"
)

// jsonStyles colors JSON tokens.
type jsonStyles struct {
	key     lipgloss.Style
	str     lipgloss.Style
	number  lipgloss.Style
	boolean lipgloss.Style
	null    lipgloss.Style
	punct   lipgloss.Style
}

func defaultJSONStyles() jsonStyles {
	return jsonStyles{
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		str:     lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		number:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		boolean: lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		null:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		punct:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}

// JSONView shows a launch record as indented, highlighted JSON that can
// be scrolled line by line.
type JSONView struct {
	*tui.BaseComponent
	styles jsonStyles
	lines  []string
	offset int
}

// NewJSONView creates an empty JSON view.
func NewJSONView() *JSONView {
	return &JSONView{
		BaseComponent: tui.NewBaseComponent("JSON"),
		styles:        defaultJSONStyles(),
	}
}

// SetValue renders value and scrolls back to the top.
func (v *JSONView) SetValue(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	raw := strings.Split(string(data), "\n")
	v.lines = make([]string, len(raw))
	for i, line := range raw {
		v.lines[i] = v.highlightLine(line)
	}
	v.offset = 0
	return nil
}

// LineCount returns the number of rendered lines.
func (v *JSONView) LineCount() int {
	return len(v.lines)
}

// Offset returns the first visible line.
func (v *JSONView) Offset() int {
	return v.offset
}

// Scroll moves the window by delta lines, staying within the content.
func (v *JSONView) Scroll(delta int) {
	maxOffset := max(len(v.lines)-v.visibleRows(), 0)
	v.offset = min(max(v.offset+delta, 0), maxOffset)
}

func (v *JSONView) visibleRows() int {
	if v.Height() <= 0 {
		return len(v.lines)
	}
	return v.Height()
}

// View renders the visible lines.
func (v *JSONView) View() string {
	end := min(v.offset+v.visibleRows(), len(v.lines))
	return strings.Join(v.lines[v.offset:end], "\n")
}

// highlightLine colors one line of MarshalIndent output. A string
// followed by a colon is a key.
func (v *JSONView) highlightLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	var sb strings.Builder
	sb.WriteString(line[:len(line)-len(trimmed)])

	chars := []rune(trimmed)
	for i := 0; i < len(chars); {
		switch ch := chars[i]; {
		case ch == '"':
			end := stringEnd(chars, i)
			token := string(chars[i:end])
			if end < len(chars) && chars[end] == ':' {
				sb.WriteString(v.styles.key.Render(token))
			} else {
				sb.WriteString(v.styles.str.Render(token))
			}
			i = end

		case strings.ContainsRune("{}[]:,", ch):
			sb.WriteString(v.styles.punct.Render(string(ch)))
			i++

		case ch == '-' || (ch >= '0' && ch <= '9'):
			end := i + 1
			for end < len(chars) && strings.ContainsRune("0123456789.eE+-", chars[end]) {
				end++
			}
			sb.WriteString(v.styles.number.Render(string(chars[i:end])))
			i = end

		case hasWord(chars, i, "true"), hasWord(chars, i, "false"):
			word := "true"
			if ch == 'f' {
				word = "false"
			}
			sb.WriteString(v.styles.boolean.Render(word))
			i += len(word)

		case hasWord(chars, i, "null"):
			sb.WriteString(v.styles.null.Render("null"))
			i += 4

		default:
			sb.WriteRune(ch)
			i++
		}
	}
	return sb.String()
}

// stringEnd returns the index just past the string literal starting at
// start, honoring backslash escapes.
func stringEnd(chars []rune, start int) int {
	for i := start + 1; i < len(chars); i++ {
		switch chars[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(chars)
}

func hasWord(chars []rune, i int, word string) bool {
	return i+len(word) <= len(chars) && string(chars[i:i+len(word)]) == word
}
