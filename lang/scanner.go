package lang

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner converts source text into tokens one line at a time. Block
// comment state carries across lines, so lines must be scanned in order.
// The zero value is ready to use.
type Scanner struct {
	src       string // line being scanned
	pos       int    // byte offset into src
	line      int    // 1-based line number of src
	col       int    // 1-based column of the rune at pos
	inComment bool   // an open block comment spans into this line
}

// Scan tokenizes source in full. It is total over any input: a lexical
// error discards the remainder of the offending line, and scanning
// resumes at the next line boundary, so at most one error is reported
// per line. The token stream always ends with an EOF token.
func Scan(source string) ([]Token, []error) {
	var (
		s      Scanner
		tokens []Token
		errs   []error
	)

	for _, line := range strings.Split(source, "\n") {
		toks, err := s.ScanLine(line)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		tokens = append(tokens, toks...)
	}

	tokens = append(tokens, Token{Kind: EOF, Pos: s.position()})

	return tokens, errs
}

// ScanLine tokenizes one line of source, without a trailing EOF token.
// On a lexical error the rest of the line is discarded and no tokens are
// returned; the next call resumes at the following line. Comment state
// carries over between calls.
func (s *Scanner) ScanLine(line string) ([]Token, error) {
	s.src = line
	s.pos = 0
	s.col = 1
	s.line++

	var tokens []Token

	for {
		if s.inComment && !s.resumeComment() {
			return tokens, nil
		}

		s.skipSpace()

		if s.eof() {
			return tokens, nil
		}

		switch r := s.peek(); {
		case r == '/' && s.peekAt(1) == '/':
			return tokens, nil

		case r == '/' && s.peekAt(1) == '*':
			s.advance()
			s.advance()

			s.inComment = true

		case isDigit(r):
			tok, err := s.scanNumber()
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, tok)

		case r == '"':
			tok, err := s.scanString()
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, tok)

		case unicode.IsLetter(r):
			tokens = append(tokens, s.scanWord())

		default:
			tok, err := s.scanOperator()
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, tok)
		}
	}
}

// Line reports the number of lines scanned so far.
func (s *Scanner) Line() int { return s.line }

// scanNumber scans decimal digits with an optional single fractional
// part. The dot is consumed only when a digit follows, so "1..4" yields
// the tokens number(1), "..", number(4).
func (s *Scanner) scanNumber() (Token, error) {
	pos := s.position()
	start := s.pos

	s.digits()

	if s.peek() == '.' {
		switch next := s.peekAt(1); {
		case isDigit(next):
			s.advance()
			s.digits()

		case next == '.':
			// Range operator follows; the literal ends here.

		default:
			return Token{}, ErrMalformedNumber.At(pos).
				With(slog.String("literal", s.src[start:s.pos]+"."))
		}
	}

	text := s.src[start:s.pos]

	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, ErrMalformedNumber.At(pos).Wrap(err)
	}

	return Token{Kind: NUMBER, Text: text, Num: num, Pos: pos}, nil
}

// scanString scans a double-quoted string. Content is taken verbatim;
// the only escapes are \" and \\. Strings do not span lines.
func (s *Scanner) scanString() (Token, error) {
	pos := s.position()

	s.advance() // opening quote

	var text strings.Builder

	for !s.eof() {
		switch r := s.advance(); r {
		case '"':
			return Token{Kind: STRING, Text: text.String(), Pos: pos}, nil

		case '\\':
			if s.eof() {
				return Token{}, ErrMalformedString.At(pos)
			}

			esc := s.advance()
			if esc != '"' && esc != '\\' {
				return Token{}, ErrMalformedString.At(pos).
					With(slog.String("escape", `\`+string(esc)))
			}

			text.WriteRune(esc)

		default:
			text.WriteRune(r)
		}
	}

	return Token{}, ErrUnterminatedString.At(pos)
}

// scanWord scans an identifier or keyword. The first character is a
// Unicode letter; continuation characters are letters, digits, or '_'.
func (s *Scanner) scanWord() Token {
	pos := s.position()
	start := s.pos

	for !s.eof() && isWordPart(s.peek()) {
		s.advance()
	}

	word := s.src[start:s.pos]

	return Token{Kind: LookupKeyword(word), Text: word, Pos: pos}
}

func (s *Scanner) scanOperator() (Token, error) {
	pos := s.position()

	var kind Kind

	switch r := s.advance(); r {
	case '-':
		kind = s.pair('>', ARROW, MINUS)
	case '.':
		kind = s.pair('.', RANGE, DOT)
	case '=':
		kind = s.pair('=', EQ, ASSIGN)
	case '>':
		kind = s.pair('=', GTEQ, GT)
	case '<':
		kind = s.pair('=', LTEQ, LT)
	case '!':
		kind = s.pair('=', NEQ, BANG)
	case '&':
		kind = s.pair('&', AND, AMP)
	case '|':
		kind = s.pair('|', OR, PIPE)
	case '(':
		kind = LPAREN
	case ')':
		kind = RPAREN
	case '{':
		kind = LBRACE
	case '}':
		kind = RBRACE
	case '[':
		kind = LBRACKET
	case ']':
		kind = RBRACKET
	case ':':
		kind = COLON
	case ';':
		kind = SEMI
	case '+':
		kind = PLUS
	case '*':
		kind = STAR
	case '%':
		kind = PERCENT
	case ',':
		kind = COMMA
	case '\\':
		kind = LAMBDA
	case '_':
		kind = UNDERSCORE
	case '/':
		kind = SLASH // comment forms were ruled out by the caller
	default:
		return Token{}, ErrUnexpectedChar.At(pos).
			With(slog.String("char", string(r)))
	}

	return Token{Kind: kind, Text: kindName[kind], Pos: pos}, nil
}

// pair consumes the second character of a two-character operator when it
// matches want, yielding wide, and yields narrow otherwise.
func (s *Scanner) pair(want rune, wide, narrow Kind) Kind {
	if s.peek() == want {
		s.advance()

		return wide
	}

	return narrow
}

// resumeComment consumes input through the end of an open block comment.
// It reports whether the comment closed on this line. Block comments do
// not nest: the first "*/" closes the comment.
func (s *Scanner) resumeComment() bool {
	for !s.eof() {
		if s.peek() == '*' && s.peekAt(1) == '/' {
			s.advance()
			s.advance()

			s.inComment = false

			return true
		}

		s.advance()
	}

	return false
}

func (s *Scanner) skipSpace() {
	for {
		switch s.peek() {
		case ' ', '\t', '\r':
			s.advance()
		default:
			return
		}
	}
}

func (s *Scanner) digits() {
	for isDigit(s.peek()) {
		s.advance()
	}
}

// Cursor helpers

func (s *Scanner) peek() rune {
	if s.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(s.src[s.pos:])

	return r
}

func (s *Scanner) peekAt(n int) rune {
	pos := s.pos

	for ; n > 0 && pos < len(s.src); n-- {
		_, size := utf8.DecodeRuneInString(s.src[pos:])
		pos += size
	}

	if pos >= len(s.src) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(s.src[pos:])

	return r
}

func (s *Scanner) advance() rune {
	if s.eof() {
		return 0
	}

	r, size := utf8.DecodeRuneInString(s.src[s.pos:])

	s.pos += size
	s.col++

	return r
}

func (s *Scanner) eof() bool { return s.pos >= len(s.src) }

func (s *Scanner) position() Pos { return Pos{Line: s.line, Column: s.col} }

// Character classification

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isWordPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
