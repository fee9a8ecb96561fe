//go:build property
// +build property

package property

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/agentctl/agentctl/pkg/llm"
)

// TestDecodeCompletionProperties checks the normalization invariants
// over arbitrary well-formed replies: arguments are always a JSON
// object string, IDs are never empty, and a legacy function_call is
// only consulted when the modern array is absent.
func TestDecodeCompletionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("tool call IDs and arguments are always usable", prop.ForAll(
		func(callID, fnName, argsJSON string, useLegacy bool) bool {
			if fnName == "" {
				fnName = "fn"
			}

			var body string
			if useLegacy {
				body = fmt.Sprintf(
					`{"choices":[{"message":{"function_call":{"name":%q,"arguments":%q}}}]}`,
					fnName, argsJSON)
			} else {
				body = fmt.Sprintf(
					`{"choices":[{"message":{"tool_calls":[{"id":%q,"function":{"name":%q,"arguments":%q}}]}}]}`,
					callID, fnName, argsJSON)
			}

			resp, err := llm.DecodeCompletion([]byte(body), "m")
			if err != nil {
				return false
			}
			if len(resp.ToolCalls) != 1 {
				return false
			}

			call := resp.ToolCalls[0]
			if call.ID == "" || call.Type != "function" {
				return false
			}
			if call.Function.Name != fnName {
				return false
			}
			// Arguments are passed through when non-empty, defaulted otherwise
			if argsJSON == "" {
				return call.Function.Arguments == "{}"
			}
			return call.Function.Arguments == argsJSON
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.OneConstOf("", `{"a":1}`, `{"nested":{"b":[1,2]}}`, "free text"),
		gen.Bool(),
	))

	properties.Property("content is never absent from a decoded reply", prop.ForAll(
		func(content string) bool {
			body := fmt.Sprintf(`{"choices":[{"message":{"content":%q}}]}`, content)
			resp, err := llm.DecodeCompletion([]byte(body), "m")
			return err == nil && resp.Content == content
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)

	// Generated legacy IDs carry the call_ prefix
	resp, err := llm.DecodeCompletion([]byte(
		`{"choices":[{"message":{"function_call":{"name":"foo"}}}]}`), "m")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(resp.ToolCalls[0].ID, "call_"))

	// And the output shape marshals back to valid JSON
	_, err = json.Marshal(resp)
	require.NoError(t, err)
}
