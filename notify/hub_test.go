package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(server.Close)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	waitForClient(t, hub, sessionID)
	return conn
}

func waitForClient(t *testing.T, hub *Hub, sessionID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients[sessionID]) > 0
	}, time.Second, 5*time.Millisecond)
}

func TestHubSendDeliversToSessionClient(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "s1")

	hub.Send("s1", Instruction{Kind: KindToast, Title: "Saved", Variant: VariantSuccess})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var in Instruction
	require.NoError(t, conn.ReadJSON(&in))
	assert.Equal(t, KindToast, in.Kind)
	assert.Equal(t, "Saved", in.Title)
}

func TestHubSendWithoutClientIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.Send("nobody", Instruction{Kind: KindToast, Title: "dropped"})
}

func TestHubSendConcurrentDispatches(t *testing.T) {
	// Several workers finishing invocations for the same session send
	// at once; the connection must survive with every instruction
	// delivered intact.
	hub := NewHub()
	conn := dialHub(t, hub, "s1")

	const senders, perSender = 16, 25
	payload := strings.Repeat("x", 2048)

	readErr := make(chan error, 1)
	go func() {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		for i := 0; i < senders*perSender; i++ {
			var in Instruction
			if err := conn.ReadJSON(&in); err != nil {
				readErr <- err
				return
			}
		}
		readErr <- nil
	}()

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				hub.Send("s1", Instruction{Kind: KindToast, Message: payload})
			}
		}()
	}
	wg.Wait()
	require.NoError(t, <-readErr)

	// The client is still registered; nothing was dropped mid-burst.
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Len(t, hub.clients["s1"], 1)
}
