package nhtsa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/charm-vin-resolver/internal/resolver"
)

const camaroVIN = "2G1FB1E39F9100001"

const camaroBody = `{"Count":3,"Message":"Results returned successfully","Results":[
{"Value":null,"ValueId":"","Variable":"Suggested VIN","VariableId":142},
{"Value":"2015","ValueId":"","Variable":"Model Year","VariableId":29},
{"Value":"CHEVROLET","ValueId":"467","Variable":"Make","VariableId":26},
{"Value":"Camaro","ValueId":"1966","Variable":"Model","VariableId":28},
{"Value":"Impala","ValueId":"","Variable":"Model","VariableId":28}
]}`

func newDecoderServer(t *testing.T, status int, body string, gotPath *atomic.Value) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotPath != nil {
			gotPath.Store(r.URL.EscapedPath() + "?" + r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDecodeVIN_Success(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	srv := newDecoderServer(t, http.StatusOK, camaroBody, &gotPath)
	client := NewClient(Config{BaseURL: srv.URL + "/api/vehicles/DecodeVin/", Timeout: time.Second}, nil, nil)

	info, err := client.DecodeVIN(context.Background(), camaroVIN)
	require.NoError(t, err)
	require.Equal(t, resolver.VehicleInfo{Year: "2015", Make: "CHEVROLET", Model: "Camaro"}, info)
	require.Equal(t, "/api/vehicles/DecodeVin/"+camaroVIN+"?format=json", gotPath.Load())
}

func TestDecodeVIN_Failures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "missing make",
			status: http.StatusOK,
			body:   `{"Results":[{"Variable":"Model Year","Value":"2015"},{"Variable":"Model","Value":"Camaro"}]}`,
		},
		{
			name:   "null model",
			status: http.StatusOK,
			body:   `{"Results":[{"Variable":"Model Year","Value":"2015"},{"Variable":"Make","Value":"CHEVROLET"},{"Variable":"Model","Value":null}]}`,
		},
		{
			name:   "blank year",
			status: http.StatusOK,
			body:   `{"Results":[{"Variable":"Model Year","Value":"  "},{"Variable":"Make","Value":"CHEVROLET"},{"Variable":"Model","Value":"Camaro"}]}`,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>maintenance</html>`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := newDecoderServer(t, tc.status, tc.body, nil)
			client := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, nil, nil)

			_, err := client.DecodeVIN(context.Background(), camaroVIN)
			require.Error(t, err)
			require.Contains(t, err.Error(), "Failed to decode VIN")
			require.Equal(t, resolver.KindInvalidInput, resolver.KindOf(err))
			require.Equal(t, "Failed to decode VIN", resolver.PublicMessage(err, ""))
		})
	}
}

func TestDecodeVIN_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client := NewClient(Config{BaseURL: base, Timeout: time.Second}, nil, nil)
	_, err := client.DecodeVIN(context.Background(), camaroVIN)
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "Failed to decode VIN"))
}

func TestDecodeVIN_LimiterError(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, waiterFunc(func(context.Context, string) error {
		return errors.New("limited")
	}), nil)
	_, err := client.DecodeVIN(context.Background(), camaroVIN)
	require.ErrorContains(t, err, "limited")
}

func TestDecodeVIN_EscapesVIN(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	srv := newDecoderServer(t, http.StatusOK, camaroBody, &gotPath)
	client := NewClient(Config{BaseURL: srv.URL}, nil, nil)

	_, err := client.DecodeVIN(context.Background(), "ab/cd")
	require.NoError(t, err)
	require.Equal(t, "/ab%2Fcd?format=json", gotPath.Load())
}

type waiterFunc func(ctx context.Context, url string) error

func (f waiterFunc) Wait(ctx context.Context, url string) error { return f(ctx, url) }
