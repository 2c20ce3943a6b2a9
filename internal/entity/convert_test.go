package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanza-hq/stanza-backend/internal/model"
)

func TestParseValue(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		kind Kind
		raw  string
		want any
	}{
		{"text", KindText, "hello", "hello"},
		{"bool", KindBool, "true", true},
		{"int", KindInt, "-42", int64(-42)},
		{"float", KindFloat, "3.5", 3.5},
		{"uuid", KindUUID, id.String(), id},
		{"time", KindTime, "2026-03-14T09:30:00Z", ts},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := &Field{Name: tc.name, Kind: tc.kind}
			got, err := ParseValue(f, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseValueMismatch(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  string
	}{
		{KindBool, "yes please"},
		{KindInt, "1.5"},
		{KindFloat, "abc"},
		{KindUUID, "not-a-uuid"},
		{KindTime, "yesterday"},
	}
	for _, tc := range cases {
		f := &Field{Name: "f", Kind: tc.kind}
		_, err := ParseValue(f, tc.raw)
		assert.ErrorIs(t, err, model.ErrTypeMismatch, tc.kind.String())
	}
}

func TestParseID(t *testing.T) {
	reg := NewRegistry()
	d := MustRegister[model.Culture](reg, "cultures")

	id := uuid.New()
	got, err := d.ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = d.ParseID("42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInvalidIdentifier))
}
