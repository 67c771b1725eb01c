package actionlog

import (
	"encoding/json"
	"fmt"
)

// wireAction is the JSON wire shape produced by capture collaborators.
// Only the fields valid for the tagged kind are honored.
type wireAction struct {
	Kind            Kind    `json:"kind"`
	Timestamp       int64   `json:"timestamp"`
	Content         string  `json:"content,omitempty"`
	PauseDurationMs int64   `json:"pauseDurationMs,omitempty"`
	DwellTimeMs     float64 `json:"dwellTimeMs,omitempty"`
	FlightTimeMs    float64 `json:"flightTimeMs,omitempty"`
	CursorRange     *struct {
		From int `json:"from"`
		To   int `json:"to"`
	} `json:"cursorRange,omitempty"`
}

// Decode parses a JSON array of wire actions into a Log.
// Unknown kinds are rejected; field combinations invalid for a kind are
// simply not representable in the decoded result.
func Decode(data []byte) (Log, error) {
	var wire []wireAction
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode action log: %w", err)
	}
	return fromWire(wire)
}

func fromWire(wire []wireAction) (Log, error) {
	log := make(Log, 0, len(wire))
	for i, w := range wire {
		a, err := w.toAction()
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		log = append(log, a)
	}
	return log, nil
}

func (w wireAction) toAction() (Action, error) {
	switch w.Kind {
	case KindInsert:
		return Insert{At: w.Timestamp, Content: w.Content}, nil
	case KindDelete:
		return Delete{At: w.Timestamp}, nil
	case KindCursor:
		c := Cursor{At: w.Timestamp}
		if w.CursorRange != nil {
			c.From = w.CursorRange.From
			c.To = w.CursorRange.To
		}
		return c, nil
	case KindPause:
		return Pause{At: w.Timestamp, DurationMs: w.PauseDurationMs}, nil
	case KindKeyDown:
		return KeyDown{At: w.Timestamp, Content: w.Content, DwellMs: w.DwellTimeMs, FlightMs: w.FlightTimeMs}, nil
	case KindKeyUp:
		return KeyUp{At: w.Timestamp, Content: w.Content}, nil
	default:
		return nil, fmt.Errorf("unknown action kind %q", w.Kind)
	}
}
