package apiclient_test

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusglobal/internal/apiclient"
)

func bytesReader(s string) io.Reader {
	return bytes.NewReader([]byte(s))
}

func TestMessages_Unmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want apiclient.Messages
	}{
		{name: "string", in: `"Credenciales invalidas"`, want: apiclient.Messages{"Credenciales invalidas"}},
		{name: "array", in: `["a","b"]`, want: apiclient.Messages{"a", "b"}},
		{name: "null", in: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env struct {
				Message apiclient.Messages `json:"message"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"message":`+tt.in+`}`), &env))
			assert.Equal(t, tt.want, env.Message)
		})
	}

	t.Run("number is rejected", func(t *testing.T) {
		var m apiclient.Messages
		assert.Error(t, json.Unmarshal([]byte(`42`), &m))
	})
}

func TestMessages_Marshal(t *testing.T) {
	one, err := json.Marshal(apiclient.Messages{"ok"})
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(one))

	many, err := json.Marshal(apiclient.Messages{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(many))

	none, err := json.Marshal(apiclient.Messages(nil))
	require.NoError(t, err)
	assert.Equal(t, `null`, string(none))
}

func TestEnvelope_Decode(t *testing.T) {
	t.Run("null data leaves target untouched", func(t *testing.T) {
		env := apiclient.Envelope{Success: true, Data: json.RawMessage(`null`)}
		out := map[string]string{"kept": "yes"}

		require.NoError(t, env.Decode(&out))
		assert.Equal(t, "yes", out["kept"])
		assert.False(t, env.HasData())
	})

	t.Run("raw message copies bytes verbatim", func(t *testing.T) {
		env := apiclient.Envelope{Success: true, Data: json.RawMessage(`{"b":1,"a":2}`)}

		var raw json.RawMessage
		require.NoError(t, env.Decode(&raw))
		assert.Equal(t, `{"b":1,"a":2}`, string(raw))
	})

	t.Run("type mismatch", func(t *testing.T) {
		env := apiclient.Envelope{Success: true, Data: json.RawMessage(`"text"`)}

		var out struct{ ID int }
		assert.Error(t, env.Decode(&out))
	})
}
