package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneration_IsTerminal(t *testing.T) {
	tests := []struct {
		status   string
		terminal bool
	}{
		{GenerationStatusValidating, false},
		{GenerationStatusSubmitted, false},
		{GenerationStatusPolling, false},
		{GenerationStatusRejected, true},
		{GenerationStatusSucceeded, true},
		{GenerationStatusFailed, true},
		{GenerationStatusTimedOut, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			g := &Generation{Status: tt.status}
			assert.Equal(t, tt.terminal, g.IsTerminal())
		})
	}
}
