package jsonlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

type entry struct {
	Level      string            `json:"level"`
	Time       string            `json:"time"`
	Message    string            `json:"message"`
	Properties map[string]string `json:"properties"`
	Trace      string            `json:"trace"`
}

func decode(t *testing.T, buf *bytes.Buffer) []entry {
	t.Helper()
	var entries []entry
	dec := json.NewDecoder(buf)
	for dec.More() {
		var e entry
		if err := dec.Decode(&e); err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestJSONLogger(t *testing.T) {
	t.Run("INFO Level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintInfo("starting server", map[string]string{"addr": "localhost:3000"})

		entries := decode(t, &buf)
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry; got %d", len(entries))
		}
		e := entries[0]
		if e.Level != "INFO" || e.Message != "starting server" || e.Properties["addr"] != "localhost:3000" {
			t.Errorf("unexpected entry %+v", e)
		}
		if e.Trace != "" {
			t.Error("expected no trace on INFO entries")
		}
	})

	t.Run("ERROR Level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintError(errors.New("bulk item failed"), map[string]string{"id": "42"})

		entries := decode(t, &buf)
		if len(entries) != 1 || entries[0].Level != "ERROR" || entries[0].Trace == "" {
			t.Errorf("expected one ERROR entry with trace; got %+v", entries)
		}
	})

	t.Run("DEBUG filtered", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		l.PrintDebug("query", nil)
		if buf.Len() != 0 {
			t.Errorf("expected DEBUG to be dropped; got %s", buf.String())
		}
	})

	t.Run("OFF Level", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelOff)
		l.PrintFatal(errors.New("boom"), nil)
		if buf.Len() != 0 {
			t.Errorf("expected nothing written; got %s", buf.String())
		}
	})

	t.Run("Writer", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, LevelInfo)
		if _, err := l.Write([]byte("http: TLS handshake error\n")); err != nil {
			t.Fatal(err)
		}
		entries := decode(t, &buf)
		if len(entries) != 1 || entries[0].Message != "http: TLS handshake error" {
			t.Errorf("unexpected entries %+v", entries)
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"TRACE", LevelDebug, false},
		{"", LevelInfo, false},
		{"Warn", LevelInfo, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"off", LevelOff, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s; got %s", tt.want, got)
			}
		})
	}
}
