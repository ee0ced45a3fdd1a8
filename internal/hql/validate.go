package hql

import (
	"github.com/blastrain/vitess-sqlparser/sqlparser"
)

var mutating = map[string]bool{
	"insert": true, "update": true, "delete": true, "merge": true, "upsert": true,
	"drop": true, "alter": true, "create": true, "truncate": true, "rename": true,
	"grant": true, "revoke": true, "attach": true, "detach": true, "copy": true,
	"pragma": true, "vacuum": true, "call": true, "install": true, "load": true,
}

// checkSelection accepts SELECT and UNION statements. Entity names are
// replaced with neutral identifiers first so reserved words like Order
// parse. Syntax outside the MySQL grammar falls back to a keyword scan.
func (s *Statement) checkSelection() error {
	stmt, err := sqlparser.Parse(s.checkSQL)
	if err == nil {
		switch stmt.(type) {
		case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect:
			return nil
		default:
			return ErrNotSelection
		}
	}
	return keywordGate(s.toks)
}

func keywordGate(toks []token) error {
	first := firstSignificant(toks)
	if first < 0 {
		return ErrEmpty
	}
	switch toks[first].keyword() {
	case "select", "with", "values":
	default:
		if !(toks[first].kind == tokPunct && toks[first].text == "(") {
			return ErrNotSelection
		}
	}
	for _, t := range toks {
		if mutating[t.keyword()] {
			return ErrNotSelection
		}
	}
	return nil
}
