package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestErrorIncludesContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := context.Background()
	ctx = log.WithSubmissionID(ctx, "1700000000000-ab12cd34")

	log.Error(ctx, "boom", errors.New("boom"))

	if !bytes.Contains(buf.Bytes(), []byte("\"submission_id\"")) {
		t.Fatalf("expected submission_id to be preserved; entry=%s", buf.String())
	}
}

func TestFieldsAccumulateAcrossContexts(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "test", Level: ParseLevel("debug"), Output: buf})

	ctx := log.WithFactoryID(context.Background(), "factory-7")
	ctx = log.WithFields(ctx, map[string]any{"form_type": "daily_log"})

	log.Info(ctx, "enqueued")

	for _, want := range []string{"\"factory_id\"", "\"form_type\""} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Fatalf("expected %s in entry %s", want, buf.String())
		}
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if lvl := ParseLevel(""); lvl != zerolog.InfoLevel {
		t.Fatalf("expected info level for empty value, got %v", lvl)
	}
	if lvl := ParseLevel("garbage"); lvl != zerolog.InfoLevel {
		t.Fatalf("expected info level for invalid value, got %v", lvl)
	}
	if lvl := ParseLevel("WARN"); lvl != zerolog.WarnLevel {
		t.Fatalf("expected case-insensitive parse, got %v", lvl)
	}
}
