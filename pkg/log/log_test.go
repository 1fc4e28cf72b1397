package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	tests := []struct {
		name     string
		input    []any
		wantKeys []string
	}{
		{"empty", nil, nil},
		{"pairs", []any{"topic", "/dolphinc", "qos", 1, "retain", false}, []string{"topic", "qos", "retain"}},
		{"time and duration", []any{"at", time.Now(), "took", time.Second}, []string{"at", "took"}},
		{"bare error", []any{errors.New("boom"), "topic", "/dolphinc"}, []string{"error", "topic"}},
		{"zap field passthrough", []any{zap.String("x", "y"), "n", 42}, []string{"x", "n"}},
		{"dangling value", []any{"key1", "val1", "key2"}, []string{"key1", "!BADKEY2"}},
		{"non-string key", []any{123, "value"}, []string{"!BADKEY(123)"}},
		{"named error", []any{"cause", errors.New("x")}, []string{"cause"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := toFields(tt.input)
			if len(fields) != len(tt.wantKeys) {
				t.Fatalf("toFields() returned %d fields, want %d", len(fields), len(tt.wantKeys))
			}
			for i, f := range fields {
				if f.Key != tt.wantKeys[i] {
					t.Errorf("field[%d].Key = %q, want %q", i, f.Key, tt.wantKeys[i])
				}
			}
		})
	}
}

func TestPayloadField(t *testing.T) {
	prev := payloadPreview.Load()
	t.Cleanup(func() { payloadPreview.Store(prev) })

	tests := []struct {
		name     string
		preview  int64
		payload  []byte
		wantType zapcore.FieldType
		want     string
	}{
		{"full text", 0, []byte("熄火提醒"), zapcore.ByteStringType, "熄火提醒"},
		{"short text", 64, []byte("speed=12"), zapcore.ByteStringType, "speed=12"},
		// Each rune is three bytes; a cut at 4 backs off to one rune.
		{"truncated on rune boundary", 4, []byte("熄火提醒"), zapcore.StringType, "熄..."},
		{"invalid utf-8", 0, []byte{0xff, 0xfe}, zapcore.BinaryType, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payloadPreview.Store(tt.preview)
			f := payloadField("payload", tt.payload)
			if f.Type != tt.wantType {
				t.Fatalf("Type = %v, want %v", f.Type, tt.wantType)
			}
			switch f.Type {
			case zapcore.StringType:
				if f.String != tt.want {
					t.Errorf("String = %q, want %q", f.String, tt.want)
				}
			case zapcore.ByteStringType:
				if got := string(f.Interface.([]byte)); got != tt.want {
					t.Errorf("ByteString = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	if got := FromContext(context.Background()); got != Std() {
		t.Error("FromContext() without a logger should return the process logger")
	}

	l := NewNopLogger().WithValues("topic", "/dolphinc")
	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got != l {
		t.Error("FromContext() did not return the stored logger")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr int
	}{
		{"defaults", func(o *Options) {}, 0},
		{"json format", func(o *Options) { o.Format = FormatJSON }, 0},
		{"bad format", func(o *Options) { o.Format = "xml" }, 1},
		{"bad level", func(o *Options) { o.Level = "loud" }, 1},
		{"negative preview", func(o *Options) { o.PayloadPreview = -1 }, 1},
		{"all bad", func(o *Options) { o.Format = ""; o.Level = "loud"; o.PayloadPreview = -5 }, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions()
			tt.mutate(o)
			if errs := o.Validate(); len(errs) != tt.wantErr {
				t.Errorf("Validate() returned %d errors (%v), want %d", len(errs), errs, tt.wantErr)
			}
		})
	}
}
