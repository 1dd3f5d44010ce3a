package nexus_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusglobal/internal/apiclient"
	"nexusglobal/internal/nexus"
)

func TestNewCulqiService_RequiresKey(t *testing.T) {
	_, err := nexus.NewCulqiService("", "", 0)

	assert.True(t, apiclient.IsKind(err, apiclient.KindConfiguration))
}

func TestCulqiService_CreateToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, nexus.EndpointTokens, r.URL.Path)
		assert.Equal(t, "Bearer pk_test_123", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var card map[string]string
		require.NoError(t, json.Unmarshal(body, &card))

		w.Header().Set("Content-Type", "application/json")
		if card["card_number"] != "4111111111111111" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"object":"error","type":"card_error","merchant_message":"invalid","user_message":"Numero de tarjeta invalido"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"object":"token","id":"tkn_test_abc","type":"card","email":"ana@x.pe","active":true,"last_four":"1111"}`)
	}))
	defer srv.Close()

	svc, err := nexus.NewCulqiService(srv.URL, "pk_test_123", 0)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		token, err := svc.CreateToken(context.Background(), nexus.Card{
			CardNumber: "4111 1111 1111 1111", CVV: "123", ExpirationMonth: "09", ExpirationYear: "2030", Email: "ana@x.pe",
		})
		require.NoError(t, err)
		assert.Equal(t, "tkn_test_abc", token.ID)
		assert.Equal(t, "1111", token.LastFour)
	})

	t.Run("card error", func(t *testing.T) {
		_, err := svc.CreateToken(context.Background(), nexus.Card{CardNumber: "4000", Email: "ana@x.pe"})

		apiErr, ok := apiclient.AsError(err)
		require.True(t, ok)
		assert.Equal(t, apiclient.KindHTTP, apiErr.Kind)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "Numero de tarjeta invalido", apiErr.Message.String())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreateToken(context.Background(), nexus.Card{Email: "ana@x.pe"})
		assert.ErrorIs(t, err, nexus.ErrInvalidArgument)
	})
}
