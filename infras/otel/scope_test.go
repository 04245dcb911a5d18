package otel_test

import (
	"rental/infras/otel"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

type status string

func (s status) String() string { return "status:" + string(s) }

func TestAttribute(t *testing.T) {
	at := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value any
		want  attribute.Value
	}{
		{name: "bool", value: true, want: attribute.BoolValue(true)},
		{name: "string", value: "pending", want: attribute.StringValue("pending")},
		{name: "int", value: 3, want: attribute.IntValue(3)},
		{name: "int64", value: int64(7), want: attribute.Int64Value(7)},
		{name: "string slice", value: []string{"admin", "user"}, want: attribute.StringSliceValue([]string{"admin", "user"})},
		{name: "time", value: at, want: attribute.StringValue("2024-06-01T08:00:00Z")},
		{name: "stringer", value: status("approved"), want: attribute.StringValue("status:approved")},
		{name: "fallback", value: struct{ A int }{A: 1}, want: attribute.StringValue("{1}")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := otel.Attribute("key", tt.value)

			assert.Equal(t, attribute.Key("key"), kv.Key)
			assert.Equal(t, tt.want, kv.Value)
		})
	}
}
