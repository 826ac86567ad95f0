package progress

import (
	"math"
	"time"

	"github.com/abhisek/cassini/internal/curriculum"
)

const (
	streakWindow = 24 * time.Hour
	streakBreak  = 48 * time.Hour
	weekLength   = 7 * 24 * time.Hour
)

// User is the learner profile.
type User struct {
	ID           int64
	DisplayName  string
	Grade        int
	StreakCount  int
	LastActivity *time.Time
	TotalXP      int
	WeeklyXP     int
	WeekStart    *time.Time
	Level        int
	CreatedAt    time.Time
}

// NewUser returns a profile with defaults applied.
func NewUser(id int64, name string, now time.Time) User {
	return User{
		ID:          id,
		DisplayName: name,
		Grade:       curriculum.DefaultGrade,
		Level:       1,
		CreatedAt:   now,
	}
}

// UpdateStreak applies one completed batch at now. Under 24h since the last
// activity only the timestamp moves; 24h to 48h extends the streak; longer
// gaps, or no prior activity, restart it at 1.
func (u *User) UpdateStreak(now time.Time) int {
	switch {
	case u.LastActivity == nil:
		u.StreakCount = 1
	case now.Sub(*u.LastActivity) < streakWindow:
		// Same day; keep the count.
	case now.Sub(*u.LastActivity) < streakBreak:
		u.StreakCount++
	default:
		u.StreakCount = 1
	}
	t := now
	u.LastActivity = &t
	return u.StreakCount
}

// AddXP credits amount, rolling the weekly counter every 7 days, and
// recomputes the level.
func (u *User) AddXP(amount int, now time.Time) {
	if u.WeekStart == nil || now.Sub(*u.WeekStart) >= weekLength {
		if u.WeekStart != nil {
			u.WeeklyXP = 0
		}
		t := now
		u.WeekStart = &t
	}
	u.TotalXP += amount
	u.WeeklyXP += amount
	u.Level = LevelFor(u.TotalXP)
}

// LevelFor returns floor(sqrt(xp/100)) + 1.
func LevelFor(totalXP int) int {
	if totalXP <= 0 {
		return 1
	}
	return int(math.Sqrt(float64(totalXP)/100)) + 1
}

// ResetProgress clears earned state, keeping identity.
func (u *User) ResetProgress() {
	u.TotalXP = 0
	u.WeeklyXP = 0
	u.WeekStart = nil
	u.Level = 1
	u.StreakCount = 0
	u.LastActivity = nil
	u.Grade = curriculum.DefaultGrade
}
