package actionlog

import (
	"testing"
)

func TestDecodeAllKinds(t *testing.T) {
	data := []byte(`[
		{"kind": "insert", "timestamp": 0, "content": "hello"},
		{"kind": "delete", "timestamp": 100},
		{"kind": "cursor", "timestamp": 200, "cursorRange": {"from": 3, "to": 7}},
		{"kind": "pause", "timestamp": 300, "pauseDurationMs": 2500},
		{"kind": "keydown", "timestamp": 400, "content": "h", "dwellTimeMs": 85.5, "flightTimeMs": 120},
		{"kind": "keyup", "timestamp": 500, "content": "h"}
	]`)

	log, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if len(log) != 6 {
		t.Fatalf("Decode() returned %d actions, want 6", len(log))
	}

	ins, ok := log[0].(Insert)
	if !ok || ins.Content != "hello" || ins.At != 0 {
		t.Errorf("action 0 = %#v, want Insert{At: 0, Content: hello}", log[0])
	}

	cur, ok := log[2].(Cursor)
	if !ok || cur.From != 3 || cur.To != 7 {
		t.Errorf("action 2 = %#v, want Cursor{From: 3, To: 7}", log[2])
	}

	p, ok := log[3].(Pause)
	if !ok || p.DurationMs != 2500 {
		t.Errorf("action 3 = %#v, want Pause{DurationMs: 2500}", log[3])
	}

	kd, ok := log[4].(KeyDown)
	if !ok || kd.DwellMs != 85.5 || kd.FlightMs != 120 {
		t.Errorf("action 4 = %#v, want KeyDown{DwellMs: 85.5, FlightMs: 120}", log[4])
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	_, err := Decode([]byte(`[{"kind": "scroll", "timestamp": 0}]`))
	if err == nil {
		t.Fatal("Decode() accepted unknown kind, want error")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	if err == nil {
		t.Fatal("Decode() accepted malformed input, want error")
	}
}

func TestDecodeIgnoresForeignFields(t *testing.T) {
	// A pause with cursor fields decodes as a plain pause; the impossible
	// combination is dropped, not an error.
	log, err := Decode([]byte(`[{"kind": "pause", "timestamp": 0, "pauseDurationMs": 100, "cursorRange": {"from": 1, "to": 2}}]`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if _, ok := log[0].(Pause); !ok {
		t.Errorf("action 0 = %#v, want Pause", log[0])
	}
}
