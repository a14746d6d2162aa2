package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformMessage(t *testing.T) {
	assert.Equal(t, "quota exceeded", platformMessage([]byte(`{"error":{"message":"quota exceeded"}}`)))
	assert.Equal(t, "bad request", platformMessage([]byte(`{"message":"bad request"}`)))
	assert.Equal(t, "plain text", platformMessage([]byte("  plain text\n")))
	assert.Equal(t, "", platformMessage(nil))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Stream a conversational answer.", firstLine("Stream a conversational answer.\nEvents arrive in order."))
	assert.Equal(t, "no break", firstLine("no break"))
	assert.Equal(t, "windows line", firstLine("windows line\r\nrest"))
	assert.Equal(t, "", firstLine(""))
}
