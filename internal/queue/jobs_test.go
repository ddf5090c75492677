package queue

import "testing"

func TestDecodePayload(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		want   string
		wantOK bool
	}{
		{"valid", `{"hash":"abc123"}`, "abc123", true},
		{"extra fields", `{"hash":"abc","other":1}`, "abc", true},
		{"empty hash", `{"hash":""}`, "", false},
		{"missing hash", `{"id":"abc"}`, "", false},
		{"hash not a string", `{"hash":42}`, "", false},
		{"null hash", `{"hash":null}`, "", false},
		{"not json", `hash=abc`, "", false},
		{"array", `["abc"]`, "", false},
		{"empty", ``, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodePayload([]byte(tc.in))
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("DecodePayload(%s) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestNewMetadataTask(t *testing.T) {
	task, err := NewMetadataTask("abc")
	if err != nil {
		t.Fatalf("NewMetadataTask: %v", err)
	}
	if task.Type() != ImageMetadataTask {
		t.Errorf("type = %q", task.Type())
	}
	if hash, ok := DecodePayload(task.Payload()); !ok || hash != "abc" {
		t.Errorf("payload round trip = (%q, %v)", hash, ok)
	}
}
