package sse

import "testing"

func TestClassify(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name        string
		line        string
		wantKind    FrameKind
		wantPayload string
	}{
		{"blank", "", FrameBlank, ""},
		{"comment", ":ping", FrameComment, ""},
		{"comment with space", ": keep-alive", FrameComment, ""},
		{"data with space", `data: {"a":1}`, FrameData, `{"a":1}`},
		{"data without space", `data:{"a":1}`, FrameData, `{"a":1}`},
		{"data surrounding whitespace", "data:   {}  \t", FrameData, "{}"},
		{"sentinel", "data: [DONE]", FrameSentinel, "[DONE]"},
		{"sentinel no space", "data:[DONE]", FrameSentinel, "[DONE]"},
		{"sentinel trailing space", "data: [DONE]  ", FrameSentinel, "[DONE]"},
		{"sentinel must match exactly", "data: [DONE]x", FrameData, "[DONE]x"},
		{"empty payload", "data:", FrameData, ""},
		{"event field", "event: message", FrameUnrecognized, ""},
		{"id field", "id: 42", FrameUnrecognized, ""},
		{"whitespace only", "   ", FrameUnrecognized, ""},
		{"prefix must lead", " data: {}", FrameUnrecognized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := c.Classify(tt.line)
			if f.Kind != tt.wantKind {
				t.Errorf("Classify(%q).Kind = %s, want %s", tt.line, f.Kind, tt.wantKind)
			}
			if f.Payload != tt.wantPayload {
				t.Errorf("Classify(%q).Payload = %q, want %q", tt.line, f.Payload, tt.wantPayload)
			}
		})
	}
}

func TestClassify_CustomFraming(t *testing.T) {
	c := Classifier{DataPrefix: "payload=", Sentinel: "END"}

	if f := c.Classify("payload= END"); f.Kind != FrameSentinel {
		t.Errorf("custom sentinel: Kind = %s, want sentinel", f.Kind)
	}
	if f := c.Classify("payload={}"); f.Kind != FrameData || f.Payload != "{}" {
		t.Errorf("custom prefix: got %+v", f)
	}
	if f := c.Classify("data: {}"); f.Kind != FrameUnrecognized {
		t.Errorf("default prefix under custom framing: Kind = %s, want unrecognized", f.Kind)
	}
}

func TestClassify_ZeroValueUsesDefaults(t *testing.T) {
	var c Classifier
	if f := c.Classify("data: [DONE]"); f.Kind != FrameSentinel {
		t.Errorf("zero Classifier: Kind = %s, want sentinel", f.Kind)
	}
}

func TestFrameKindString(t *testing.T) {
	want := map[FrameKind]string{
		FrameBlank:        "blank",
		FrameComment:      "comment",
		FrameData:         "data",
		FrameSentinel:     "sentinel",
		FrameUnrecognized: "unrecognized",
		FrameKind(99):     "unknown",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("FrameKind(%d).String() = %q, want %q", int(k), k.String(), s)
		}
	}
}
