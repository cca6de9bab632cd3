package gateway

import "testing"

func TestDecodeJSONPlain(t *testing.T) {
	var v map[string]string
	if err := DecodeJSON(`{"a":"b"}`, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v["a"] != "b" {
		t.Errorf("unexpected value %+v", v)
	}
}

func TestDecodeJSONFenced(t *testing.T) {
	text := "```json\n[{\"headline\":\"H\"}]\n```"
	var items []NewsItem
	if err := DecodeJSON(text, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Headline != "H" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestDecodeJSONInvalid(t *testing.T) {
	var v any
	if err := DecodeJSON("not json", &v); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
