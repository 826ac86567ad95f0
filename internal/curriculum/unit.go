package curriculum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var unitIDPattern = regexp.MustCompile(`([A-Z]+)_G([0-9]+)_U([0-9]+)`)

// UnitID is the structured form of a unit identifier such as BIO_G10_U1.
type UnitID struct {
	SubjectCode string
	Grade       int
	Unit        int
}

// NewUnitID builds a UnitID, normalizing the subject to its short code.
func NewUnitID(subject string, grade, unit int) UnitID {
	return UnitID{SubjectCode: SubjectCode(subject), Grade: grade, Unit: unit}
}

func (u UnitID) String() string {
	if u.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_G%d_U%d", u.SubjectCode, u.Grade, u.Unit)
}

// IsZero reports whether the id is unset.
func (u UnitID) IsZero() bool {
	return u.SubjectCode == "" || u.Grade == 0 || u.Unit == 0
}

// SubjectName returns the full subject name for the unit.
func (u UnitID) SubjectName() string {
	return SubjectName(u.SubjectCode)
}

// FindUnitID extracts the first unit identifier embedded anywhere in s.
func FindUnitID(s string) (UnitID, bool) {
	m := unitIDPattern.FindStringSubmatch(s)
	if m == nil {
		return UnitID{}, false
	}
	grade, _ := strconv.Atoi(m[2])
	unit, _ := strconv.Atoi(m[3])
	id := UnitID{SubjectCode: m[1], Grade: grade, Unit: unit}
	if id.IsZero() {
		return UnitID{}, false
	}
	return id, true
}

// UnitLabel renders the display label for a unit number.
func UnitLabel(n int) string {
	return fmt.Sprintf("Unit %d", n)
}

// ParseUnitLabel accepts "Unit 3", "Unit 3: Cells", "Unit_3", "U3" and "3".
func ParseUnitLabel(label string) (int, bool) {
	s := strings.TrimSpace(label)
	if i := strings.Index(s, ":"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.ReplaceAll(s, "_", " ")
	for _, prefix := range []string{"Unit", "unit", "U", "u"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
