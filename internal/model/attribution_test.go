package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attrs(statuses ...VerificationStatus) []Attribution {
	out := make([]Attribution, len(statuses))
	for i, s := range statuses {
		out[i] = Attribution{VerificationStatus: s}
	}
	return out
}

func TestBestVerification(t *testing.T) {
	verified := VerificationVerified
	speculative := VerificationSpeculative
	disputed := VerificationDisputed

	tests := []struct {
		name  string
		attrs []Attribution
		want  *VerificationStatus
	}{
		{"verified wins", attrs(VerificationDisputed, VerificationSpeculative, VerificationVerified), &verified},
		{"speculative beats disputed", attrs(VerificationDisputed, VerificationSpeculative), &speculative},
		{"single disputed", attrs(VerificationDisputed), &disputed},
		{"empty", nil, nil},
		{"invalid skipped", attrs("UNKNOWN", VerificationDisputed), &disputed},
		{"only invalid", attrs("", "UNKNOWN"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BestVerification(tt.attrs)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestClipVerificationStatus(t *testing.T) {
	assert.Nil(t, (&Clip{}).VerificationStatus())

	c := &Clip{Attributions: attrs(VerificationSpeculative, VerificationVerified)}
	require.NotNil(t, c.VerificationStatus())
	assert.Equal(t, VerificationVerified, *c.VerificationStatus())
}
