package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Strips without a target slot, or with an empty one, must never reach
// PulseAudio. Exercised without a connection: the backend only dials out
// once a strip resolves to a named target.
func TestPulseBackendSkipsUntargetedStrips(t *testing.T) {
	b := &PulseBackend{targets: []string{"", "Music"}}

	assert.NoError(t, b.ApplyLevel(0, 0.5))
	assert.NoError(t, b.ApplyLevel(2, 0.5))
	assert.NoError(t, b.ApplyLevel(-1, 0.5))
}
