package sratools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		exitCode int
		want     Outcome
	}{
		{"clean exit", ExitSuccess, OutcomeSuccess},
		{"already complete", ExitAlreadyComplete, OutcomeSuccess},
		{"disk limit", ExitNoSpace, OutcomeNoSpace},
		{"generic failure", 1, OutcomeFailed},
		{"odd code", 64, OutcomeFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(&Result{ExitCode: tc.exitCode}))
		})
	}
}
