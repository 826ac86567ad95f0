package curriculum

// Letters are the option keys in presentation order.
var Letters = []string{"A", "B", "C", "D"}

// ValidLetter reports whether s names one of the four options.
func ValidLetter(s string) bool {
	for _, l := range Letters {
		if l == s {
			return true
		}
	}
	return false
}

// Options holds the four lettered answer choices.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Get returns the option text for a letter.
func (o Options) Get(letter string) string {
	switch letter {
	case "A":
		return o.A
	case "B":
		return o.B
	case "C":
		return o.C
	case "D":
		return o.D
	}
	return ""
}

// Question is a single multiple-choice item.
type Question struct {
	ID            string  `json:"question_id"`
	Question      string  `json:"question"`
	Options       Options `json:"options"`
	CorrectAnswer string  `json:"correct_answer"`
	Explanation   string  `json:"explanation"`
	SourceUnit    string  `json:"source_unit,omitempty"`
}

// Unit returns the structured source unit, falling back to parsing the
// question id when the source unit is absent.
func (q Question) Unit() (UnitID, bool) {
	if id, ok := FindUnitID(q.SourceUnit); ok {
		return id, true
	}
	return FindUnitID(q.ID)
}
