package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/nexus/lang"
)

// Styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // name of the function being called
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside the argument list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's argument list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan backward from cursor to find the opening paren of a function call.
	// Track nested parens so we find the correct one.
	parenDepth := 0
	openParenPos := -1

	for i := cursor - 1; i >= 0; i-- {
		ch, size := utf8.DecodeLastRuneInString(input[:i+1])

		switch ch {
		case ')':
			parenDepth++
		case '(':
			if parenDepth == 0 {
				openParenPos = i

				goto foundOpenParen
			}

			parenDepth--
		}

		// Move to start of this rune
		if i > 0 {
			i -= (size - 1)
		}
	}

foundOpenParen:
	if openParenPos == -1 {
		return functionCall{inCall: false}
	}

	// Extract the identifier before the '(' by walking backward.
	nameEnd := openParenPos
	nameStart := openParenPos

	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])

		if r == '_' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') {
			nameStart -= size
		} else {
			break
		}
	}

	funcName := strings.TrimSpace(input[nameStart:nameEnd])
	if funcName == "" {
		return functionCall{inCall: false}
	}

	// Count arguments by counting commas at depth 0 in the argument list
	argIndex := 0
	depth := 0

	for i := openParenPos + 1; i < cursor; i++ {
		ch, size := utf8.DecodeRuneInString(input[i:])

		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}

		i += size - 1
	}

	return functionCall{
		name:     funcName,
		argIndex: argIndex,
		inCall:   true,
	}
}

// lookupFunc returns the function bound to name in the session scope.
func lookupFunc(interp *lang.Interp, name string) (*lang.Func, bool) {
	val, ok := interp.Scope().Binding(name)
	if !ok || val.Kind != lang.KindFunc || val.Func == nil {
		return nil, false
	}

	return val.Func, true
}

// hasSignature reports whether name is bound to a function whose
// signature can be hinted.
func hasSignature(interp *lang.Interp, name string) bool {
	_, ok := lookupFunc(interp, name)

	return ok
}

// paramLabel renders one parameter as it appears in a signature hint.
func paramLabel(p lang.Param) string {
	if p.Type == lang.KindInvalid {
		return p.Name
	}

	return p.Name + ": " + p.Type.String()
}

// funcSignature renders a function header in source notation, for
// example "fn scale(input: Node, factor: Number) -> Node".
func funcSignature(f *lang.Func) string {
	var b strings.Builder

	b.WriteString("fn ")
	b.WriteString(f.Name)
	b.WriteString("(")

	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString(paramLabel(p))
	}

	b.WriteString(")")

	if f.Result != lang.KindInvalid {
		b.WriteString(" -> ")
		b.WriteString(f.Result.String())
	}

	return b.String()
}

// renderSignatureHint renders the named function's signature with the
// current parameter highlighted.
func renderSignatureHint(
	interp *lang.Interp,
	name string,
	currentArgIdx int,
) string {
	f, ok := lookupFunc(interp, name)
	if !ok {
		return ""
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(f.Name))
	b.WriteString(signatureStyle.Render("("))

	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		label := paramLabel(p)

		if currentArgIdx == i {
			b.WriteString(currentParamStyle.Render(label))
		} else {
			b.WriteString(signatureStyle.Render(label))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	if f.Result != lang.KindInvalid {
		b.WriteString(signatureStyle.Render(" -> " + f.Result.String()))
	}

	return b.String()
}
