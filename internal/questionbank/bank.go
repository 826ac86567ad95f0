// Package questionbank reads curriculum questions from the on-disk bank:
// {dir}/{Subject}/Grade_{n}/Unit_{k}/R{1..10}.json.
package questionbank

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/abhisek/cassini/internal/curriculum"
	"github.com/abhisek/cassini/internal/logger"
)

// MaxRounds bounds the R{n}.json files read per unit.
const MaxRounds = 10

// roundFile is the decoded form of one R{n}.json file.
type roundFile struct {
	SchemaVersion string                `json:"schema_version,omitempty"`
	Unit          string                `json:"unit"`
	Questions     []curriculum.Question `json:"questions"`
	State         json.RawMessage       `json:"__STATE__,omitempty"`
}

type unitContent struct {
	title     string
	questions []curriculum.Question
}

// Bank is a filesystem question supply. Loaded units are cached; the bank
// is treated as immutable for the lifetime of the process.
type Bank struct {
	dir string
	log *logger.Logger

	mu    sync.RWMutex
	cache map[curriculum.UnitID]unitContent
}

// New creates a Bank rooted at dir.
func New(dir string, log *logger.Logger) *Bank {
	if log == nil {
		log = logger.Nop()
	}
	return &Bank{
		dir:   dir,
		log:   log.With("component", "questionbank"),
		cache: make(map[curriculum.UnitID]unitContent),
	}
}

// Dir returns the bank root.
func (b *Bank) Dir() string { return b.dir }

func (b *Bank) gradeDir(subject string, grade int) string {
	return filepath.Join(b.dir, curriculum.SubjectName(subject), fmt.Sprintf("Grade_%d", grade))
}

func (b *Bank) unitDir(subject string, grade, unit int) string {
	return filepath.Join(b.gradeDir(subject, grade), fmt.Sprintf("Unit_%d", unit))
}

// ListGrades returns the grades present for a subject, ascending.
func (b *Bank) ListGrades(subject string) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(b.dir, curriculum.SubjectName(subject)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list grades: %w", err)
	}
	var grades []int
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "Grade_") {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), "Grade_")); err == nil {
			grades = append(grades, n)
		}
	}
	sort.Ints(grades)
	return grades, nil
}

// ListUnits returns the unit numbers present for a subject and grade,
// sorted numerically.
func (b *Bank) ListUnits(subject string, grade int) ([]int, error) {
	entries, err := os.ReadDir(b.gradeDir(subject, grade))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list units: %w", err)
	}
	var units []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if n, ok := curriculum.ParseUnitLabel(e.Name()); ok {
			units = append(units, n)
		}
	}
	sort.Ints(units)
	return units, nil
}

// LoadUnitQuestions aggregates every round file of a unit in round order.
// Each returned question carries its source unit id. Returns
// curriculum.ErrContentNotFound when the unit has no questions.
func (b *Bank) LoadUnitQuestions(subject string, grade, unit int) ([]curriculum.Question, string, error) {
	id := curriculum.NewUnitID(subject, grade, unit)

	b.mu.RLock()
	c, ok := b.cache[id]
	b.mu.RUnlock()
	if ok {
		return cloneQuestions(c.questions), c.title, nil
	}

	c, err := b.readUnit(id)
	if err != nil {
		return nil, "", err
	}
	if len(c.questions) == 0 {
		return nil, "", fmt.Errorf("%s: %w", id, curriculum.ErrContentNotFound)
	}

	b.mu.Lock()
	b.cache[id] = c
	b.mu.Unlock()

	return cloneQuestions(c.questions), c.title, nil
}

func (b *Bank) readUnit(id curriculum.UnitID) (unitContent, error) {
	dir := b.unitDir(id.SubjectCode, id.Grade, id.Unit)
	content := unitContent{title: curriculum.UnitLabel(id.Unit)}

	for r := 1; r <= MaxRounds; r++ {
		path := filepath.Join(dir, fmt.Sprintf("R%d.json", r))
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				break
			}
			return content, fmt.Errorf("read %s: %w", path, err)
		}
		if len(strings.TrimSpace(string(raw))) == 0 {
			b.log.Warn("skipping empty round file", "path", path)
			continue
		}
		if err := ValidateRound(raw); err != nil {
			// A broken round must not hide the rest of the unit.
			b.log.Warn("skipping invalid round file", "path", path, "error", err)
			continue
		}
		var rf roundFile
		if err := json.Unmarshal(raw, &rf); err != nil {
			b.log.Warn("skipping undecodable round file", "path", path, "error", err)
			continue
		}
		if rf.Unit != "" {
			content.title = rf.Unit
		}
		for _, q := range rf.Questions {
			q.SourceUnit = id.String()
			content.questions = append(content.questions, q)
		}
	}
	return content, nil
}

// FindQuestion scans every unit of a subject and grade for a question id.
func (b *Bank) FindQuestion(subject string, grade int, questionID string) (curriculum.Question, bool) {
	units, err := b.ListUnits(subject, grade)
	if err != nil {
		return curriculum.Question{}, false
	}
	for _, u := range units {
		qs, _, err := b.LoadUnitQuestions(subject, grade, u)
		if err != nil {
			continue
		}
		for _, q := range qs {
			if q.ID == questionID {
				return q, true
			}
		}
	}
	return curriculum.Question{}, false
}

// ValidateTree checks every round file under the bank root and returns one
// error per invalid file, keyed by path.
func (b *Bank) ValidateTree() (checked int, problems map[string]error, err error) {
	problems = make(map[string]error)
	err = filepath.WalkDir(b.dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), "R") || filepath.Ext(d.Name()) != ".json" {
			return nil
		}
		checked++
		raw, err := os.ReadFile(path)
		if err != nil {
			problems[path] = err
			return nil
		}
		if err := ValidateRound(raw); err != nil {
			problems[path] = err
		}
		return nil
	})
	return checked, problems, err
}

func cloneQuestions(qs []curriculum.Question) []curriculum.Question {
	out := make([]curriculum.Question, len(qs))
	copy(out, qs)
	return out
}
