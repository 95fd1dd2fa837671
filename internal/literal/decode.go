package literal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Decoder decodes literal text with the tree-sitter TypeScript grammar.
// A Decoder is safe for concurrent use; each call uses its own parser.
type Decoder struct {
	lang *sitter.Language
}

// NewDecoder returns a Decoder for JavaScript and TypeScript literals.
func NewDecoder() *Decoder {
	return &Decoder{lang: typescript.GetLanguage()}
}

// Decode parses text as a single restricted literal expression.
func (d *Decoder) Decode(ctx context.Context, text string) (Value, error) {
	// Parenthesised so a leading '{' parses as an object, not a block.
	src := []byte("(" + text + ")")

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(d.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("literal: parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, d.treeError(root, text)
	}

	stmts := namedChildren(root)
	if len(stmts) != 1 || stmts[0].Type() != "expression_statement" {
		return nil, &SyntaxError{Msg: "expected a single literal expression"}
	}
	exprs := namedChildren(stmts[0])
	if len(exprs) != 1 {
		return nil, &SyntaxError{Msg: "expected a single literal expression"}
	}

	w := walker{src: src, text: text}
	return w.value(exprs[0])
}

// treeError locates the first ERROR or missing node below n.
func (d *Decoder) treeError(n *sitter.Node, text string) error {
	bad := findError(n)
	if bad == nil {
		return &SyntaxError{Msg: "malformed literal"}
	}
	offset := int(bad.StartByte()) - 1
	if bad.IsMissing() {
		return syntaxErrorAt(text, offset, "missing %s", bad.Type())
	}
	return syntaxErrorAt(text, offset, "unexpected %s", excerpt(bad.Content([]byte("("+text+")"))))
}

func findError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		if found := findError(child); found != nil {
			return found
		}
	}
	return nil
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

type walker struct {
	src  []byte // wrapped source the tree was parsed from
	text string // original text, for error positions
}

func (w walker) errorf(n *sitter.Node, format string, args ...any) error {
	return syntaxErrorAt(w.text, int(n.StartByte())-1, format, args...)
}

func (w walker) value(n *sitter.Node) (Value, error) {
	switch n.Type() {
	case "object":
		return w.object(n)
	case "array":
		elems := namedChildren(n)
		out := make([]Value, 0, len(elems))
		for _, el := range elems {
			v, err := w.value(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case "string":
		return w.stringValue(n)
	case "template_string":
		return w.templateValue(n)
	case "number":
		return w.number(n, n.Content(w.src))
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null", "undefined":
		return nil, nil
	case "unary_expression":
		op := n.ChildByFieldName("operator")
		arg := n.ChildByFieldName("argument")
		if op == nil || arg == nil || arg.Type() != "number" {
			return nil, w.errorf(n, "unsupported unary expression")
		}
		f, err := w.number(arg, arg.Content(w.src))
		if err != nil {
			return nil, err
		}
		switch op.Content(w.src) {
		case "-":
			return -f, nil
		case "+":
			return f, nil
		}
		return nil, w.errorf(n, "unsupported operator %s", op.Content(w.src))
	case "parenthesized_expression", "as_expression", "satisfies_expression":
		inner := namedChildren(n)
		if len(inner) == 0 {
			return nil, w.errorf(n, "empty expression")
		}
		return w.value(inner[0])
	}
	return nil, w.errorf(n, "unsupported %s %s", strings.ReplaceAll(n.Type(), "_", " "), excerpt(n.Content(w.src)))
}

func (w walker) object(n *sitter.Node) (*Object, error) {
	obj := NewObject()
	for _, member := range namedChildren(n) {
		if member.Type() != "pair" {
			return nil, w.errorf(member, "unsupported %s %s in object", strings.ReplaceAll(member.Type(), "_", " "), excerpt(member.Content(w.src)))
		}
		keyNode := member.ChildByFieldName("key")
		valNode := member.ChildByFieldName("value")
		if keyNode == nil || valNode == nil {
			return nil, w.errorf(member, "incomplete property")
		}
		key, err := w.key(keyNode)
		if err != nil {
			return nil, err
		}
		val, err := w.value(valNode)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	return obj, nil
}

func (w walker) key(n *sitter.Node) (string, error) {
	switch n.Type() {
	case "property_identifier":
		return n.Content(w.src), nil
	case "string":
		return w.stringValue(n)
	case "number":
		f, err := w.number(n, n.Content(w.src))
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", w.errorf(n, "unsupported key %s", excerpt(n.Content(w.src)))
}

func (w walker) stringValue(n *sitter.Node) (string, error) {
	raw := n.Content(w.src)
	if len(raw) < 2 {
		return "", w.errorf(n, "malformed string")
	}
	s, err := unescape(raw[1 : len(raw)-1])
	if err != nil {
		return "", w.errorf(n, "%v", err)
	}
	return s, nil
}

func (w walker) templateValue(n *sitter.Node) (string, error) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil && child.Type() == "template_substitution" {
			return "", w.errorf(child, "template substitution is not a literal")
		}
	}
	return w.stringValue(n)
}

func (w walker) number(n *sitter.Node, raw string) (float64, error) {
	s := strings.ReplaceAll(raw, "_", "")
	s = strings.TrimSuffix(s, "n")
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, w.errorf(n, "invalid number %s", raw)
	}
	return f, nil
}

// unescape resolves JavaScript string escape sequences.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash")
		}
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 >= len(s) {
				return "", fmt.Errorf("short \\x escape")
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("invalid \\x escape")
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			r, n, err := unicodeEscape(s[i+1:])
			if err != nil {
				return "", err
			}
			i += n
			if utf16.IsSurrogate(r) && strings.HasPrefix(s[i+1:], `\u`) {
				if r2, n2, err := unicodeEscape(s[i+3:]); err == nil {
					if pair := utf16.DecodeRune(r, r2); pair != utf8.RuneError {
						r = pair
						i += 2 + n2
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}

// unicodeEscape decodes the part of a \u escape after the 'u' and returns the
// rune and the number of bytes consumed.
func unicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, fmt.Errorf("invalid \\u{} escape")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || v > utf8.MaxRune {
			return 0, 0, fmt.Errorf("invalid \\u{} escape")
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short \\u escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid \\u escape")
	}
	return rune(v), 4, nil
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 24 {
		s = s[:24] + "..."
	}
	return strconv.Quote(s)
}
