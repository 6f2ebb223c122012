// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestToolNameFromHeaders(t *testing.T) {
	const field = "bedrockAgentCoreToolName"

	encode := func(v string) string {
		return base64.StdEncoding.EncodeToString([]byte(v))
	}

	cases := []struct {
		name    string
		headers map[string]string
		want    string
		wantErr bool
	}{
		{
			name:    "client context",
			headers: map[string]string{HeaderClientContext: encode(`{"custom":{"bedrockAgentCoreToolName":"t___get_person"}}`)},
			want:    "t___get_person",
		},
		{
			name: "client context wins over header",
			headers: map[string]string{
				HeaderClientContext: encode(`{"custom":{"bedrockAgentCoreToolName":"a"}}`),
				HeaderToolName:      "b",
			},
			want: "a",
		},
		{
			name: "context without field falls back to header",
			headers: map[string]string{
				HeaderClientContext: encode(`{"custom":{}}`),
				HeaderToolName:      " list_persons ",
			},
			want: "list_persons",
		},
		{
			name:    "no headers",
			headers: map[string]string{},
			want:    "",
		},
		{
			name:    "context is not json",
			headers: map[string]string{HeaderClientContext: encode(`not json`)},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		h := http.Header{}
		for k, v := range tc.headers {
			h.Set(k, v)
		}
		got, err := toolNameFromHeaders(h, field)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestDecodeEvent(t *testing.T) {
	event, err := decodeEvent(strings.NewReader("  "))
	if err != nil || len(event) != 0 {
		t.Fatalf("empty body should be an empty event, got %v %v", event, err)
	}

	event, err = decodeEvent(strings.NewReader(`null`))
	if err != nil || event == nil {
		t.Fatalf("null body should be an empty event, got %v %v", event, err)
	}

	event, err = decodeEvent(strings.NewReader(`{"person_id":"p1","limit":25}`))
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if event["person_id"] != "p1" {
		t.Fatalf("unexpected person_id: %v", event["person_id"])
	}
	if n, ok := event["limit"].(json.Number); !ok || n.String() != "25" {
		t.Fatalf("expected limit as json.Number, got %T %v", event["limit"], event["limit"])
	}

	if _, err := decodeEvent(strings.NewReader(`"text"`)); err == nil {
		t.Fatalf("expected error for non-object event")
	}

	big := `{"x":"` + strings.Repeat("a", maxEventBytes) + `"}`
	if _, err := decodeEvent(strings.NewReader(big)); err == nil {
		t.Fatalf("expected error for oversized event")
	}
}
