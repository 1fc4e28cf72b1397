package log

import (
	"fmt"
	"sync/atomic"
	"unicode/utf8"

	"go.uber.org/zap"
)

// payloadPreview is Options.PayloadPreview of the installed logger.
var payloadPreview atomic.Int64

// toFields turns a key/value list into zap fields. A bare error or zap.Field
// may appear in key position. Byte slices are logged as text when they are
// valid UTF-8 (car payloads are Chinese text) and cut to the preview size.
func toFields(kvs []any) []zap.Field {
	if len(kvs) == 0 {
		return nil
	}

	fields := make([]zap.Field, 0, len(kvs)/2+1)
	for i := 0; i < len(kvs); {
		switch v := kvs[i].(type) {
		case zap.Field:
			fields = append(fields, v)
			i++
			continue
		case error:
			fields = append(fields, zap.Error(v))
			i++
			continue
		}

		if i+1 == len(kvs) {
			fields = append(fields, zap.Any(fmt.Sprintf("!BADKEY%d", i), kvs[i]))
			break
		}

		key, ok := kvs[i].(string)
		if !ok {
			key = fmt.Sprintf("!BADKEY(%v)", kvs[i])
		}
		fields = append(fields, field(key, kvs[i+1]))
		i += 2
	}
	return fields
}

func field(key string, v any) zap.Field {
	switch v := v.(type) {
	case []byte:
		return payloadField(key, v)
	case error:
		return zap.NamedError(key, v)
	default:
		return zap.Any(key, v)
	}
}

func payloadField(key string, b []byte) zap.Field {
	limit := int(payloadPreview.Load())
	truncated := limit > 0 && len(b) > limit
	if truncated {
		cut := b[:limit]
		// Back off a split multi-byte rune.
		for n := 0; n < utf8.UTFMax-1 && len(cut) > 0 && !utf8.Valid(cut); n++ {
			cut = cut[:len(cut)-1]
		}
		if utf8.Valid(cut) {
			b = cut
		} else {
			b = b[:limit]
		}
	}

	if !utf8.Valid(b) {
		return zap.Binary(key, b)
	}
	if truncated {
		return zap.String(key, string(b)+"...")
	}
	return zap.ByteString(key, b)
}
