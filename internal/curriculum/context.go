package curriculum

import (
	"strconv"
	"strings"
)

// Context is the curriculum position carried by a navigation parameter.
// It is parsed once at the navigation boundary and passed by value.
type Context struct {
	SubjectCode string
	Grade       int
	Unit        int
}

// ParseContext extracts subject, grade and unit from a composite parameter.
// Recognized forms include "BIO:Grade 12", "BIO:G10:U1", "Biology:10",
// "BIO_G11_U2" and a bare grade such as "12". Unrecognized parts are ignored.
func ParseContext(param string) Context {
	var c Context
	if id, ok := FindUnitID(param); ok {
		return Context{SubjectCode: id.SubjectCode, Grade: id.Grade, Unit: id.Unit}
	}

	tokens := strings.FieldsFunc(param, func(r rune) bool { return r == ':' || r == '|' })
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if sub, ok := LookupSubject(tok); ok && c.SubjectCode == "" {
			c.SubjectCode = sub.Code
			continue
		}
		if g, ok := parsePrefixed(tok, "Grade", "G"); ok {
			if c.Grade == 0 {
				c.Grade = g
			}
			continue
		}
		if u, ok := parsePrefixed(tok, "Unit", "U"); ok {
			if c.Unit == 0 {
				c.Unit = u
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			continue
		}
		switch {
		case c.Grade == 0 && ValidGrade(n):
			c.Grade = n
		case c.Unit == 0 && c.Grade != 0:
			c.Unit = n
		}
	}
	return c
}

// parsePrefixed matches tok against "<prefix> N", "<prefix>_N" or "<prefix>N"
// for any of the given prefixes. The first prefix that yields a number wins.
func parsePrefixed(tok string, prefixes ...string) (int, bool) {
	for _, p := range prefixes {
		if len(tok) <= len(p) || !strings.EqualFold(tok[:len(p)], p) {
			continue
		}
		rest := strings.TrimLeft(tok[len(p):], " _")
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

// HasSubject reports whether a subject was parsed.
func (c Context) HasSubject() bool { return c.SubjectCode != "" }

// HasGrade reports whether a grade was parsed.
func (c Context) HasGrade() bool { return c.Grade > 0 }

// HasUnit reports whether a unit was parsed.
func (c Context) HasUnit() bool { return c.Unit > 0 }

// SubjectName returns the full subject name, or "" when absent.
func (c Context) SubjectName() string {
	if !c.HasSubject() {
		return ""
	}
	return SubjectName(c.SubjectCode)
}

// UnitID returns the unit identifier, or the zero value when incomplete.
func (c Context) UnitID() UnitID {
	if !c.HasSubject() || !c.HasGrade() || !c.HasUnit() {
		return UnitID{}
	}
	return UnitID{SubjectCode: c.SubjectCode, Grade: c.Grade, Unit: c.Unit}
}

// WithGrade returns a copy of c using g when c carries no grade.
func (c Context) WithGrade(g int) Context {
	if !c.HasGrade() {
		c.Grade = g
	}
	return c
}

// String renders the canonical parameter form, e.g. "BIO:G10:U1".
func (c Context) String() string {
	var parts []string
	if c.HasSubject() {
		parts = append(parts, c.SubjectCode)
	}
	if c.HasGrade() {
		parts = append(parts, "G"+strconv.Itoa(c.Grade))
	}
	if c.HasUnit() {
		parts = append(parts, "U"+strconv.Itoa(c.Unit))
	}
	return strings.Join(parts, ":")
}
