package syntax

import (
	"fmt"
	"strings"
	"sync"

	"github.com/npillmayer/clasp"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

// Token categories of the clasp language. Operators and punctuation share the
// category OP and are told apart by their lexeme.
const (
	EOF clasp.TokType = iota
	NL
	NUMBER
	TEXT
	IDENT
	OP
)

var tokenNames = map[clasp.TokType]string{
	EOF: "end of input", NL: "newline", NUMBER: "number", TEXT: "text", IDENT: "identifier", OP: "operator",
}

// TokenName returns a readable name for a token category.
func TokenName(t clasp.TokType) string {
	if n, ok := tokenNames[t]; ok {
		return n
	}
	return fmt.Sprintf("token(%d)", t)
}

// Operators and punctuation. Longer lexemes win over their prefixes.
var operators = []string{"<-", "<=", ">=", "!=",
	"+", "-", "*", "/", "^", "=", "<", ">", "!", "&", "|", "?", ":",
	"(", ")", "[", "]", ",", ";"}

// token is the token type the scanner produces.
type token struct {
	kind   clasp.TokType
	lexeme string
	span   clasp.Span
}

func (t token) String() string {
	if t.kind == EOF || t.kind == NL {
		return TokenName(t.kind)
	}
	return fmt.Sprintf("'%s'", t.lexeme)
}

// --- lexmachine adapter ----------------------------------------------------

var (
	lexerOnce sync.Once
	lexer     *lexmachine.Lexer
	lexerErr  error
)

// compiledLexer creates the DFA on first use. The compiled lexer is read-only
// afterwards and may be shared by concurrent scanners.
func compiledLexer() (*lexmachine.Lexer, error) {
	lexerOnce.Do(func() {
		lx := lexmachine.NewLexer()
		lx.Add([]byte(`#[^\n]*`), skip) // comments
		lx.Add([]byte(`\"[^"]*\"`), makeToken(TEXT))
		lx.Add([]byte(`[0-9]+(\.[0-9]+)?`), makeToken(NUMBER))
		lx.Add([]byte(`([a-z]|[A-Z]|_)([a-z]|[A-Z]|[0-9]|_)*`), makeToken(IDENT))
		lx.Add([]byte(`\n`), makeToken(NL))
		lx.Add([]byte(`( |\t|\r)+`), skip)
		for _, op := range operators {
			r := "\\" + strings.Join(strings.Split(op, ""), "\\")
			lx.Add([]byte(r), makeToken(OP))
		}
		if err := lx.Compile(); err != nil {
			tracer().Errorf("error compiling DFA: %v", err)
			lexerErr = err
			return
		}
		lexer = lx
	})
	return lexer, lexerErr
}

// skip is an action which ignores the scanned match.
func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// makeToken is an action which wraps a scanned match into a token.
func makeToken(kind clasp.TokType) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return token{
			kind:   kind,
			lexeme: string(m.Bytes),
			span:   clasp.Span{uint64(m.TC), uint64(m.TC + len(m.Bytes))},
		}, nil
	}
}

// scan tokenizes the complete input. Unconsumable input is reported through
// errh and skipped. The result always ends with an EOF token.
func scan(input string, errh func(error, clasp.Span)) ([]token, error) {
	lx, err := compiledLexer()
	if err != nil {
		return nil, err
	}
	s, err := lx.Scanner([]byte(input))
	if err != nil {
		return nil, err
	}
	toks := make([]token, 0, len(input)/2+1)
	for tok, err, eof := s.Next(); !eof; tok, err, eof = s.Next() {
		if err != nil {
			if ui, is := err.(*machines.UnconsumedInput); is {
				errh(fmt.Errorf("unexpected input %q", clip(ui.Text)),
					clasp.Span{uint64(ui.StartTC), uint64(ui.FailTC)})
				s.TC = ui.FailTC
				continue
			}
			return toks, err
		}
		t := tok.(token)
		tracer().Debugf("token %s @%d", t, t.span.From())
		toks = append(toks, t)
	}
	end := uint64(len(input))
	toks = append(toks, token{kind: EOF, span: clasp.Span{end, end}})
	return toks, nil
}

func clip(text []byte) string {
	if len(text) > 12 {
		return string(text[:12]) + "…"
	}
	return string(text)
}

// Position converts a byte offset into a 1-based line and column.
func Position(source string, offset uint64) (line, col int) {
	line, col = 1, 1
	for i, r := range source {
		if uint64(i) >= offset {
			break
		}
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}
