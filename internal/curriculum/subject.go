package curriculum

import (
	"errors"
	"strings"
)

// ErrContentNotFound is returned when no questions exist for a requested
// subject, grade or unit.
var ErrContentNotFound = errors.New("content not found")

// Subject pairs a short code with the folder name used by the question bank.
type Subject struct {
	Code string
	Name string
}

// Subjects lists the supported subjects in display order.
var Subjects = []Subject{
	{Code: "BIO", Name: "Biology"},
	{Code: "CHEM", Name: "Chemistry"},
	{Code: "PHYS", Name: "Physics"},
	{Code: "MATH", Name: "Mathematics"},
}

// Grades lists the supported curriculum grades.
var Grades = []int{9, 10, 11, 12}

// DefaultGrade is assigned to new users.
const DefaultGrade = 9

// ValidGrade reports whether g is a supported grade.
func ValidGrade(g int) bool {
	for _, v := range Grades {
		if v == g {
			return true
		}
	}
	return false
}

// LookupSubject resolves a short code or full name, case-insensitively.
func LookupSubject(s string) (Subject, bool) {
	s = strings.TrimSpace(s)
	for _, sub := range Subjects {
		if strings.EqualFold(sub.Code, s) || strings.EqualFold(sub.Name, s) {
			return sub, true
		}
	}
	return Subject{}, false
}

// SubjectName maps a code to its full name. Unknown input is returned as is.
func SubjectName(codeOrName string) string {
	if sub, ok := LookupSubject(codeOrName); ok {
		return sub.Name
	}
	return codeOrName
}

// SubjectCode maps a full name to its code. Unknown input is returned as is.
func SubjectCode(nameOrCode string) string {
	if sub, ok := LookupSubject(nameOrCode); ok {
		return sub.Code
	}
	return nameOrCode
}
