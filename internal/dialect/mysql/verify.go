package mysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antlr4-go/antlr/v4"
	parser "github.com/bytebase/mysql-parser"
)

type ParsedColumn struct {
	Name     string
	DataType string
}

type ParsedTable struct {
	Name    string
	Columns []ParsedColumn
}

type syntaxErrors struct {
	*antlr.DefaultErrorListener
	errs []error
}

func (l *syntaxErrors) SyntaxError(_ antlr.Recognizer, _ any, line, column int, msg string, _ antlr.RecognitionException) {
	l.errs = append(l.errs, fmt.Errorf("line %d:%d %s", line, column, msg))
}

// Verify parses a CREATE TABLE statement with the MySQL grammar and returns
// the table and column names it declares.
func Verify(ddl string) (*ParsedTable, error) {
	listener := &syntaxErrors{DefaultErrorListener: antlr.NewDefaultErrorListener()}

	lexer := parser.NewMySQLLexer(antlr.NewInputStream(strings.TrimSuffix(strings.TrimSpace(ddl), ";")))
	lexer.RemoveErrorListeners()
	lexer.AddErrorListener(listener)

	stream := antlr.NewCommonTokenStream(lexer, antlr.TokenDefaultChannel)
	p := parser.NewMySQLParser(stream)
	p.RemoveErrorListeners()
	p.AddErrorListener(listener)
	p.BuildParseTrees = true

	tree := p.CreateStatement()
	if len(listener.errs) > 0 {
		return nil, fmt.Errorf("invalid create table statement: %w", errors.Join(listener.errs...))
	}

	ct := tree.CreateTable()
	if ct == nil || ct.TableName() == nil {
		return nil, errors.New("not a create table statement")
	}

	table := &ParsedTable{Name: unquoteIdent(ct.TableName().GetText())}
	if ct.TableElementList() == nil {
		return table, nil
	}
	for _, el := range ct.TableElementList().AllTableElement() {
		def := el.ColumnDefinition()
		if def == nil || def.ColumnName() == nil || def.FieldDefinition() == nil || def.FieldDefinition().DataType() == nil {
			continue
		}
		table.Columns = append(table.Columns, ParsedColumn{
			Name:     unquoteIdent(def.ColumnName().GetText()),
			DataType: def.FieldDefinition().DataType().GetText(),
		})
	}
	return table, nil
}

func unquoteIdent(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		s = strings.ReplaceAll(s[1:len(s)-1], "``", "`")
	}
	return s
}
