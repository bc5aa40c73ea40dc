package model

import "testing"

func TestRecordList_RoundTrip(t *testing.T) {
	in := RecordList{
		{"Class Code": "CSE101", "Days & Times": "MWF 01:20PM-02:25PM", "Room": "Eng2 192"},
		{"course_id": "CSE20", "meetingInformation.days": "", "extra": "kept"},
	}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("Value error: %v", err)
	}

	var out RecordList
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	for i := range in {
		for k, want := range in[i] {
			if out[i][k] != want {
				t.Errorf("record %d key %q = %q, want %q", i, k, out[i][k], want)
			}
		}
	}
	if _, ok := out[1]["meetingInformation.days"]; !ok {
		t.Error("empty fields must survive the round trip")
	}
}

func TestRecordList_ScanEdgeCases(t *testing.T) {
	var l RecordList
	if err := l.Scan(nil); err != nil || l == nil || len(l) != 0 {
		t.Errorf("Scan(nil) = %v, %v", l, err)
	}
	if err := l.Scan(`[{"Class Code":"AM10","units":5}]`); err != nil {
		t.Fatalf("Scan(string) error: %v", err)
	}
	if l[0]["units"] != "5" {
		t.Errorf("numbers should be stringified, got %q", l[0]["units"])
	}
	if err := l.Scan(42); err == nil {
		t.Error("expected error for an unsupported source type")
	}

	v, _ := RecordList(nil).Value()
	if v != "[]" {
		t.Errorf("nil list value = %v", v)
	}
}
