package service

import (
    "context"
    "io"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
)

func TestESPClient_Send(t *testing.T) {
    var (
        gotBody        string
        gotContentType string
        gotMethod      string
        calls          int
    )
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        calls++
        gotMethod = r.Method
        gotContentType = r.Header.Get("Content-Type")
        b, _ := io.ReadAll(r.Body)
        gotBody = string(b)
        if r.URL.Path == "/broken" {
            w.WriteHeader(http.StatusInternalServerError)
            return
        }
        w.WriteHeader(http.StatusOK)
    }))
    defer srv.Close()

    c := NewESPClient(2*time.Second, zap.NewNop())

    status, err := c.Send(context.Background(), srv.URL+"/ir", "A0")
    require.NoError(t, err)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, http.MethodPost, gotMethod)
    assert.Equal(t, "text/plain", gotContentType)
    assert.Equal(t, "A0", gotBody)

    status, err = c.Send(context.Background(), srv.URL+"/broken", "A1")
    require.NoError(t, err)
    assert.Equal(t, http.StatusInternalServerError, status)
    assert.Equal(t, 2, calls, "failed requests must not be retried")
}

func TestESPClient_Unreachable(t *testing.T) {
    srv := httptest.NewServer(http.NotFoundHandler())
    addr := srv.URL
    srv.Close()

    c := NewESPClient(time.Second, zap.NewNop())
    status, err := c.Send(context.Background(), addr, "A0")
    assert.Error(t, err)
    assert.Zero(t, status)
}
