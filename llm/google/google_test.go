package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/campaigner/llm"
)

func TestConvertMessages(t *testing.T) {
	contents := convertMessages([]llm.Message{
		llm.System("be terse"),
		llm.User("hello"),
		{Role: llm.RoleAssistant, Content: "hi"},
	})

	require.Len(t, contents, 3)
	assert.Equal(t, "user", string(contents[0].Role))
	assert.Equal(t, "user", string(contents[1].Role))
	assert.Equal(t, "model", string(contents[2].Role))
	require.Len(t, contents[2].Parts, 1)
	assert.Equal(t, "hi", contents[2].Parts[0].Text)
}
