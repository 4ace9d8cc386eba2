package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	skew := 5 * time.Minute

	tests := []struct {
		name string
		rec  *Record
		want State
	}{
		{
			name: "nil record is absent",
			rec:  nil,
			want: StateAbsent,
		},
		{
			name: "missing access token is absent",
			rec:  &Record{RefreshToken: "r", ExpiresAt: now.Add(time.Hour).Unix()},
			want: StateAbsent,
		},
		{
			name: "access token without expiry is corrupted",
			rec:  &Record{AccessToken: "a"},
			want: StateCorrupted,
		},
		{
			name: "negative expiry is corrupted",
			rec:  &Record{AccessToken: "a", ExpiresAt: -1},
			want: StateCorrupted,
		},
		{
			name: "expired well past skew",
			rec:  &Record{AccessToken: "a", ExpiresAt: now.Add(-10 * time.Minute).Unix()},
			want: StateExpired,
		},
		{
			name: "inside skew window counts as expired",
			rec:  &Record{AccessToken: "a", ExpiresAt: now.Add(4 * time.Minute).Unix()},
			want: StateExpired,
		},
		{
			name: "exactly at skew boundary counts as expired",
			rec:  &Record{AccessToken: "a", ExpiresAt: now.Add(skew).Unix()},
			want: StateExpired,
		},
		{
			name: "just past skew boundary is valid",
			rec:  &Record{AccessToken: "a", ExpiresAt: now.Add(skew + time.Second).Unix()},
			want: StateValid,
		},
		{
			name: "far future expiry is valid",
			rec:  &Record{AccessToken: "a", RefreshToken: "r", ExpiresAt: now.Add(time.Hour).Unix()},
			want: StateValid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.rec, now, skew))
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	now := time.Now()
	rec := &Record{AccessToken: "a", ExpiresAt: now.Add(time.Hour).Unix()}

	first := Classify(rec, now, DefaultSkew)
	for range 5 {
		assert.Equal(t, first, Classify(rec, now, DefaultSkew))
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "absent", StateAbsent.String())
	assert.Equal(t, "valid", StateValid.String())
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "corrupted", StateCorrupted.String())
}
