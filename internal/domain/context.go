package domain

import "fmt"

// ContextField names one of the two values tracked by the shell's working context.
type ContextField string

const (
	FieldDocument ContextField = "document"
	FieldSheet    ContextField = "sheet"
)

// Valid reports whether the field is one the shell knows how to fill.
func (f ContextField) Valid() bool {
	return f == FieldDocument || f == FieldSheet
}

// Context is the shell's working document and sheet. An empty string means
// the value is absent. Sheet is only meaningful relative to Document.
type Context struct {
	Document string
	Sheet    string
}

// Value returns the context value for a field.
func (c Context) Value(field ContextField) string {
	switch field {
	case FieldDocument:
		return c.Document
	case FieldSheet:
		return c.Sheet
	default:
		return ""
	}
}

// IsEmpty reports whether neither document nor sheet is set.
func (c Context) IsEmpty() bool {
	return c.Document == "" && c.Sheet == ""
}

// WithDocument switches document. The sheet is dropped unless the document
// is unchanged.
func (c Context) WithDocument(document string) Context {
	if document == c.Document {
		return c
	}
	return Context{Document: document}
}

// WithSheet returns a copy with the sheet replaced.
func (c Context) WithSheet(sheet string) Context {
	c.Sheet = sheet
	return c
}

// Label renders the context for prompts ("sales.xlsx:Sheet1").
func (c Context) Label() string {
	switch {
	case c.Document == "":
		return ""
	case c.Sheet == "":
		return c.Document
	default:
		return fmt.Sprintf("%s:%s", c.Document, c.Sheet)
	}
}
