package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTransformDSLGrammar(t *testing.T) {
	grammar := GetTransformDSLGrammar()

	for _, param := range []string{"velocity", "pitch", "timing", "duration", "probability", "deviation", "gain", "pitchShift"} {
		assert.Contains(t, grammar, `"`+param+`"`)
	}
	for _, fn := range []string{"ramp", "seq", "quant", "step", "square"} {
		assert.Contains(t, grammar, `"`+fn+`"`)
	}

	cleaned := cleanGrammar(grammar)
	assert.True(t, strings.HasPrefix(cleaned, "start:"))
	assert.NotContains(t, cleaned, "//")
}
