package syntax

import (
	"fmt"
	"strconv"

	apperrors "github.com/optinet/optinet/pkg/errors"
)

// Parse lexes and parses src into a Term, then checks that every
// lambda- and dup-bound name is referenced at most once (the affine
// binder contract the core's single-occurrence-per-binder model
// requires). Any failure — a malformed token, an unbalanced bracket, an
// unbound name, or a name used twice — is reported as an
// *errors.AppError with code CodeParseError.
func Parse(src string) (Term, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "lex error", err)
	}
	term, err := p.parseTerm()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "parse error", err)
	}
	if p.tok.kind != tokEOF {
		return nil, apperrors.Wrap(apperrors.CodeParseError,
			fmt.Sprintf("unexpected trailing input at byte offset %d", p.tok.pos), nil)
	}
	if err := checkAffine(term, newScope(nil)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "binder scope error", err)
	}
	return term, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, fmt.Errorf("expected %s at byte offset %d, got %q", what, p.tok.pos, p.tok.text)
	}
	tok := p.tok
	return tok, p.advance()
}

func (p *parser) parseNumber() (uint8, error) {
	tok, err := p.expect(tokNumber, "number")
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(tok.text, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("value %q at byte offset %d does not fit in a uint8: %w", tok.text, tok.pos, err)
	}
	return uint8(n), nil
}

func (p *parser) parseTerm() (Term, error) {
	switch p.tok.kind {
	case tokLambda:
		return p.parseLam()
	case tokLParen:
		return p.parseApp()
	case tokAmp:
		return p.parsePar()
	case tokBang:
		return p.parseDup()
	case tokDollar:
		return p.parseSaturated(false)
	case tokAt:
		return p.parseSaturated(true)
	case tokIdent:
		name := p.tok.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return Var{Name: name}, nil
	default:
		return nil, fmt.Errorf("unexpected token %q at byte offset %d", p.tok.text, p.tok.pos)
	}
}

func (p *parser) parseLam() (Term, error) {
	if _, err := p.expect(tokLambda, "'λ'"); err != nil {
		return nil, err
	}
	name, err := p.expect(tokIdent, "binder name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	body, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return Lam{Name: name.text, Body: body}, nil
}

func (p *parser) parseApp() (Term, error) {
	if _, err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	fn, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	// A single parenthesized term, as in ((λx: x) a), is plain grouping.
	if p.tok.kind == tokRParen {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return fn, nil
	}
	arg, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}
	return App{Func: fn, Arg: arg}, nil
}

func (p *parser) parsePar() (Term, error) {
	if _, err := p.expect(tokAmp, "'&'"); err != nil {
		return nil, err
	}
	color, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLAngle, "'<'"); err != nil {
		return nil, err
	}
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	right, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRAngle, "'>'"); err != nil {
		return nil, err
	}
	return Par{Color: color, Left: left, Right: right}, nil
}

func (p *parser) parseDup() (Term, error) {
	if _, err := p.expect(tokBang, "'!'"); err != nil {
		return nil, err
	}
	color, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLAngle, "'<'"); err != nil {
		return nil, err
	}
	n0, err := p.expect(tokIdent, "first dup binder name")
	if err != nil {
		return nil, err
	}
	n1, err := p.expect(tokIdent, "second dup binder name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRAngle, "'>'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(tokEquals, "'='"); err != nil {
		return nil, err
	}
	expr, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemi, "';'"); err != nil {
		return nil, err
	}
	cont, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	return Dup{Color: color, Name0: n0.text, Name1: n1.text, Expr: expr, Cont: cont}, nil
}

func (p *parser) parseSaturated(isCall bool) (Term, error) {
	sigil := tokDollar
	if isCall {
		sigil = tokAt
	}
	word := "'$'"
	if isCall {
		word = "'@'"
	}
	if _, err := p.expect(sigil, word); err != nil {
		return nil, err
	}
	id, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon, "':'"); err != nil {
		return nil, err
	}
	arity, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	args := make([]Term, 0, arity)
	for p.tok.kind != tokRBrace {
		arg, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	if len(args) != int(arity) {
		return nil, fmt.Errorf("declared arity %d does not match %d argument(s)", arity, len(args))
	}
	if isCall {
		return Cal{ID: id, Arity: arity, Args: args}, nil
	}
	return Ctr{ID: id, Arity: arity, Args: args}, nil
}
