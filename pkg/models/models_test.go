package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestClearedSettingsAreWrittenBySet(t *testing.T) {
	s := NewGuildSettings("g")
	s.MuteRole = ""
	s.ModLogChannel = ""

	b, err := bson.Marshal(bson.M{"$set": s})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	for _, field := range []string{"mute_role", "modlog_channel"} {
		v, err := bson.Raw(b).LookupErr("$set", field)
		if err != nil {
			t.Errorf("$set has no %q: %v", field, err)
			continue
		}
		if got := v.StringValue(); got != "" {
			t.Errorf("$set.%s = %q, want empty", field, got)
		}
	}
}

func TestExpiryUnix(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want int64
	}{
		{"whole second", time.Unix(100, 0), 100},
		{"rounds up", time.Unix(100, 1), 101},
		{"rounds up from late fraction", time.Unix(100, 900_000_000), 101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpiryUnix(tt.in); got != tt.want {
				t.Errorf("ExpiryUnix(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestWarnNeverExpiresEarly(t *testing.T) {
	created := time.Unix(1000, 900_000_000)
	expiry := created.Add(time.Hour)
	w := Warn{Points: 1, ExpiresAt: ExpiryUnix(expiry)}

	if !w.ActiveAt(expiry.Add(-500 * time.Millisecond)) {
		t.Error("warning inactive before its full duration elapsed")
	}
	if w.ActiveAt(expiry.Add(time.Second)) {
		t.Error("warning still active a second after expiry")
	}
}
