// Package hql translates the console's entity query language into SQL.
//
// The language is a small HQL-like subset: a statement may start with
// "from Entity", entity names after FROM and JOIN are mapped onto their
// tables, and "select alias" of an entity alias selects every column of
// that entity. Everything else is passed through to the database.
package hql

import (
	"errors"
	"fmt"
	"strings"
)

// MsgNotSelection is reported for statements that could modify data.
const MsgNotSelection = "Only selection statements are allowed"

var (
	// ErrNotSelection is returned when a statement is not a query.
	ErrNotSelection = errors.New(MsgNotSelection) //nolint:staticcheck // shown to users verbatim

	// ErrEmpty is returned for blank statements.
	ErrEmpty = errors.New("empty query")
)

// Resolver maps an entity name to its table name.
type Resolver func(entity string) (table string, ok bool)

// Quoter quotes an identifier for the target dialect.
type Quoter func(ident string) string

// Statement is a translated query.
type Statement struct {
	// SQL is executable against the datasource.
	SQL string
	// Entities lists the entity names referenced, in order of appearance.
	Entities []string

	checkSQL string
	toks     []token
}

var clauseEnd = map[string]bool{
	"where": true, "group": true, "order": true, "having": true, "limit": true,
	"offset": true, "union": true, "intersect": true, "except": true, "on": true,
	"using": true, "window": true, "fetch": true, "for": true, "qualify": true,
}

var joinWords = map[string]bool{
	"join": true, "inner": true, "left": true, "right": true, "full": true,
	"outer": true, "cross": true, "natural": true, "lateral": true,
}

// Translate converts a console query into SQL and checks that it only reads data.
func Translate(query string, resolve Resolver, quote Quoter) (*Statement, error) {
	toks := trimStatement(lex(strings.TrimSpace(query)))
	if len(toks) == 0 {
		return nil, ErrEmpty
	}
	for _, t := range toks {
		if t.kind == tokPunct && t.text == ";" {
			return nil, fmt.Errorf("multiple statements are not allowed")
		}
	}

	if first := firstSignificant(toks); first >= 0 && toks[first].keyword() == "from" {
		toks = append([]token{{tokWord, "SELECT"}, {tokSpace, " "}, {tokPunct, "*"}, {tokSpace, " "}}, toks...)
	}

	entityIdx, aliases := scanEntities(toks)
	expandAliasSelect(toks, aliases)

	exec := make([]token, len(toks))
	check := make([]token, len(toks))
	copy(exec, toks)
	copy(check, toks)

	stmt := &Statement{toks: toks}
	for n, i := range entityIdx {
		name := toks[i].text
		stmt.Entities = append(stmt.Entities, name)
		if toks[i].kind == tokWord && resolve != nil {
			if table, ok := resolve(name); ok {
				exec[i] = token{tokQuotedIdent, quote(table)}
			}
		}
		check[i] = token{tokWord, fmt.Sprintf("qc_entity_%d", n)}
	}
	stmt.SQL = join(exec)
	stmt.checkSQL = join(check)

	if err := stmt.checkSelection(); err != nil {
		return nil, err
	}
	return stmt, nil
}

func trimStatement(toks []token) []token {
	for len(toks) > 0 {
		last := toks[len(toks)-1]
		if last.significant() && !(last.kind == tokPunct && last.text == ";") {
			break
		}
		toks = toks[:len(toks)-1]
	}
	return toks
}

func firstSignificant(toks []token) int {
	for i, t := range toks {
		if t.significant() {
			return i
		}
	}
	return -1
}

// scanEntities returns the token indexes holding entity names and the
// alias declared for each entity.
func scanEntities(toks []token) ([]int, map[string]string) {
	var (
		entities     []int
		aliases      = map[string]string{}
		depth        int
		fromDepth    = -1
		expectEntity bool
		lastEntity   = -1
		expectAlias  bool
	)

	for i, t := range toks {
		if !t.significant() {
			continue
		}
		kw := t.keyword()

		if expectEntity {
			expectEntity = false
			if t.kind == tokWord || t.kind == tokQuotedIdent {
				entities = append(entities, i)
				lastEntity = i
				expectAlias = true
				continue
			}
		}

		if expectAlias {
			if kw == "as" {
				continue
			}
			expectAlias = false
			if t.kind == tokWord && !clauseEnd[kw] && !joinWords[kw] && kw != "from" {
				aliases[t.text] = toks[lastEntity].text
				continue
			}
		}

		switch {
		case t.kind == tokPunct && t.text == "(":
			depth++
		case t.kind == tokPunct && t.text == ")":
			depth--
			if depth < fromDepth {
				fromDepth = -1
			}
		case kw == "from":
			expectEntity = true
			fromDepth = depth
		case kw == "join":
			expectEntity = true
		case t.kind == tokPunct && t.text == "," && depth == fromDepth:
			expectEntity = true
		case clauseEnd[kw] && depth == fromDepth:
			fromDepth = -1
		}
	}
	return entities, aliases
}

// expandAliasSelect rewrites a top-level select list item that is a bare
// entity alias into alias.* in place.
func expandAliasSelect(toks []token, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}
	first := firstSignificant(toks)
	if first < 0 || toks[first].keyword() != "select" {
		return
	}

	depth := 0
	item := []int{}
	flush := func() {
		sig := item[:0:0]
		for _, i := range item {
			if toks[i].significant() {
				sig = append(sig, i)
			}
		}
		if len(sig) > 0 && toks[sig[0]].keyword() == "distinct" {
			sig = sig[1:]
		}
		if len(sig) == 1 {
			if _, ok := aliases[toks[sig[0]].text]; ok {
				toks[sig[0]].text += ".*"
			}
		}
		item = item[:0]
	}

	for i := first + 1; i < len(toks); i++ {
		t := toks[i]
		switch {
		case t.kind == tokPunct && t.text == "(":
			depth++
		case t.kind == tokPunct && t.text == ")":
			depth--
		case depth == 0 && t.kind == tokPunct && t.text == ",":
			flush()
			continue
		case depth == 0 && t.keyword() == "from":
			flush()
			return
		}
		item = append(item, i)
	}
}
