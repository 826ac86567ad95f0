package nav

import (
	"errors"
	"fmt"
	"strings"
)

// Callback kinds.
const (
	KindNav = "NAV"
	KindAct = "ACT"
	KindAns = "ANS"
)

// BackTarget is the NAV target that pops the stack.
const BackTarget = "BACK"

// maxCallbackLen matches the transport's callback payload limit.
const maxCallbackLen = 64

var ErrBadCallback = errors.New("malformed callback data")

// Callback is a parsed ACTION|TARGET|PARAM string. Target is a screen id
// for NAV and ANS, an action group for ACT. Param keeps any further
// pipe-separated parts joined.
type Callback struct {
	Kind   string
	Target string
	Param  string
}

// ParseCallback splits data into its parts.
func ParseCallback(data string) (Callback, error) {
	parts := strings.SplitN(strings.TrimSpace(data), "|", 3)
	if len(parts) < 2 || parts[1] == "" {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}
	cb := Callback{Kind: strings.ToUpper(parts[0]), Target: parts[1]}
	if len(parts) == 3 {
		cb.Param = parts[2]
	}
	switch cb.Kind {
	case KindNav, KindAct, KindAns:
		return cb, nil
	}
	return Callback{}, fmt.Errorf("%w: unknown kind %q", ErrBadCallback, parts[0])
}

// Verb returns the first pipe-separated part of Param and the rest.
func (c Callback) Verb() (verb, rest string) {
	verb, rest, _ = strings.Cut(c.Param, "|")
	return verb, rest
}

// String renders the callback back to its wire form.
func (c Callback) String() string {
	if c.Param == "" {
		return c.Kind + "|" + c.Target
	}
	return c.Kind + "|" + c.Target + "|" + c.Param
}

// Nav builds a navigation callback.
func Nav(screen ID, param string) string {
	return clip(Callback{Kind: KindNav, Target: string(screen), Param: param}.String())
}

// Back builds the back callback.
func Back() string { return KindNav + "|" + BackTarget }

// Act builds an action callback from a group and its parts.
func Act(group string, parts ...string) string {
	return clip(Callback{Kind: KindAct, Target: group, Param: strings.Join(parts, "|")}.String())
}

// Ans builds an answer callback.
func Ans(screen ID, letter string) string {
	return Callback{Kind: KindAns, Target: string(screen), Param: letter}.String()
}

func clip(s string) string {
	if len(s) > maxCallbackLen {
		return s[:maxCallbackLen]
	}
	return s
}
