package quiz

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Mode  Mode            `json:"mode"`
	State json.RawMessage `json:"state"`
}

// Encode serializes st with its mode tag. A nil state encodes to nil.
func Encode(st State) ([]byte, error) {
	if st == nil {
		return nil, nil
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal %s state: %w", st.Mode(), err)
	}
	return json.Marshal(envelope{Mode: st.Mode(), State: raw})
}

// Decode restores a state written by Encode. Empty input yields nil.
func Decode(data []byte) (State, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal quiz envelope: %w", err)
	}

	var st State
	switch env.Mode {
	case ModeStandard:
		st = &Standard{}
	case ModeReview:
		st = &Review{}
	case ModeSpeedrun:
		st = &Speedrun{}
	case ModeSurvival:
		st = &Survival{}
	case ModeChallenge:
		st = &Challenge{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, env.Mode)
	}
	if err := json.Unmarshal(env.State, st); err != nil {
		return nil, fmt.Errorf("unmarshal %s state: %w", env.Mode, err)
	}
	return st, nil
}
