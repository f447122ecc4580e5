package mqtt

import (
	"errors"
	"testing"
)

func TestTopicMatch(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"pancy/moderation/+/warn", "pancy/moderation/123/warn", true},
		{"pancy/moderation/+/warn", "pancy/moderation/123/ban", false},
		{"pancy/moderation/#", "pancy/moderation/123/ban", true},
		{"pancy/moderation/#", "pancy/moderation", true},
		{"pancy/+", "pancy/a/b", false},
		{"pancy/request/moderation/points", "pancy/request/moderation/points", true},
		{"pancy/request/moderation/points", "pancy/request/moderation", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.topic, func(t *testing.T) {
			if got := topicMatch(tt.pattern, tt.topic); got != tt.want {
				t.Errorf("topicMatch(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
			}
		})
	}
}

func TestDispatchRoutesByPattern(t *testing.T) {
	mc := newCommunicator("test")

	var warns, all int
	if err := mc.Subscribe("pancy/moderation/+/warn", func(string, []byte) { warns++ }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := mc.Subscribe("pancy/moderation/#", func(string, []byte) { all++ }); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if n := mc.dispatch("pancy/moderation/1/warn", nil); n != 2 {
		t.Errorf("dispatch() matched %d routes, want 2", n)
	}
	if n := mc.dispatch("pancy/moderation/1/ban", nil); n != 1 {
		t.Errorf("dispatch() matched %d routes, want 1", n)
	}
	if warns != 1 || all != 2 {
		t.Errorf("warns = %d, all = %d, want 1 and 2", warns, all)
	}

	_ = mc.Unsubscribe("pancy/moderation/#")
	if n := mc.dispatch("pancy/moderation/1/ban", nil); n != 0 {
		t.Errorf("dispatch() after Unsubscribe matched %d routes, want 0", n)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	mc := newCommunicator("test")
	if err := mc.Publish("pancy/test", map[string]string{"a": "b"}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleRequest(t *testing.T) {
	ok := handleRequest("moderation/points", MqttRequest{
		CorrelationID: "abc",
		Payload:       map[string]interface{}{"guildId": "g"},
	}, func(payload map[string]interface{}) (interface{}, error) {
		return payload["_topic"], nil
	})
	if ok.CorrelationID != "abc" || ok.Data != "moderation/points" || ok.Error != "" {
		t.Errorf("handleRequest() = %+v", ok)
	}

	failed := handleRequest("moderation/points", MqttRequest{CorrelationID: "def"}, func(map[string]interface{}) (interface{}, error) {
		return nil, errors.New("boom")
	})
	if failed.Error != "boom" || failed.Data != nil {
		t.Errorf("handleRequest() = %+v, want error boom", failed)
	}
}
