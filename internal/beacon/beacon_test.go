package beacon

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalBeaconAdvances(t *testing.T) {
	b, err := NewLocalBeacon()
	require.NoError(t, err)

	r1, v1, err := b.Latest()
	require.NoError(t, err)
	r2, v2, err := b.Latest()
	require.NoError(t, err)

	require.Equal(t, r1+1, r2)
	require.NotEqual(t, v1, v2)
	require.Len(t, v2, 32)
}

func TestLocalBeaconsIndependent(t *testing.T) {
	a, err := NewLocalBeacon()
	require.NoError(t, err)
	b, err := NewLocalBeacon()
	require.NoError(t, err)

	_, va, err := a.Latest()
	require.NoError(t, err)
	_, vb, err := b.Latest()
	require.NoError(t, err)
	require.NotEqual(t, va, vb)
}

func TestHTTPBeacon(t *testing.T) {
	randomness := "8d2f9f0afe6c155f2d83b88b66ccb26e4b3d03e2d7d837bb3a4ccb38f9b69a22"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"round": 42, "randomness": "` + randomness + `"}`))
	}))
	defer srv.Close()

	round, got, err := NewHTTPBeacon(srv.URL).Latest()
	require.NoError(t, err)
	require.Equal(t, uint64(42), round)
	want, _ := hex.DecodeString(randomness)
	require.Equal(t, want, got)
}

func TestHTTPBeaconRejectsBadResponses(t *testing.T) {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"非200状态码", `{}`, http.StatusInternalServerError},
		{"随机值非hex", `{"round": 1, "randomness": "zz"}`, http.StatusOK},
		{"随机值为空", `{"round": 1, "randomness": ""}`, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, _, err := NewHTTPBeacon(srv.URL).Latest()
			require.Error(t, err)
		})
	}
}
