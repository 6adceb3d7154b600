package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sensorwatch/internal/engine"
	"sensorwatch/internal/models"
	"sensorwatch/internal/store"
)

type idleGen struct{}

func (idleGen) Advance(readings []models.SensorReading, now time.Time) []models.SensorReading {
	out := make([]models.SensorReading, len(readings))
	copy(out, readings)
	return out
}

func testHub(t *testing.T) (*Hub, *engine.Engine, *httptest.Server) {
	t.Helper()

	st := store.New([]models.SensorReading{{
		ID: "temp_001", Name: "Living Room", Temperature: 22.5, Online: true, Battery: 90,
	}}, nil)
	eng := engine.New(engine.Config{
		Store:      st,
		Generator:  idleGen{},
		Thresholds: models.DefaultThresholds(),
	})

	h := New(eng, 50*time.Millisecond)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, eng, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

func TestInitialSnapshotOnConnect(t *testing.T) {
	_, _, srv := testHub(t)

	conn := dial(t, srv)
	msg := readMessage(t, conn)

	if msg.Event != "snapshot" {
		t.Errorf("event: got %q, want snapshot", msg.Event)
	}
	if len(msg.Data.Sensors) != 1 || msg.Data.Sensors[0].ID != "temp_001" {
		t.Errorf("sensors: %+v", msg.Data.Sensors)
	}
	if msg.Data.Thresholds.HighWarning != 25 {
		t.Errorf("thresholds not carried: %+v", msg.Data.Thresholds)
	}
}

func TestBroadcastReflectsStateChanges(t *testing.T) {
	h, eng, srv := testHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	conn := dial(t, srv)
	readMessage(t, conn) // initial snapshot

	eng.SetSystemArmed(true)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msg := readMessage(t, conn)
		if msg.Data.SystemArmed {
			return
		}
	}
	t.Error("broadcast never reflected the armed flag")
}

func TestClientCount(t *testing.T) {
	h, _, srv := testHub(t)

	if h.Count() != 0 {
		t.Fatalf("initial count: %d", h.Count())
	}

	conn := dial(t, srv)
	waitFor(t, func() bool { return h.Count() == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.Count() == 0 })
}

func TestRunClosesClientsOnCancel(t *testing.T) {
	h, _, srv := testHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	conn := dial(t, srv)
	readMessage(t, conn)
	waitFor(t, func() bool { return h.Count() == 1 })

	cancel()
	waitFor(t, func() bool { return h.Count() == 0 })

	// The server sends a close frame; subsequent reads fail.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 10; i++ {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
	t.Error("connection should be closed after hub shutdown")
}

func TestBroadcastSurvivesDisconnectChurn(t *testing.T) {
	h, _, srv := testHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	// Hammer connect/disconnect while broadcasts run. A send into a
	// freshly closed outbox would panic the broadcast goroutine and take
	// the whole process down with it.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				url := "ws" + strings.TrimPrefix(srv.URL, "http")
				conn, _, err := websocket.DefaultDialer.Dial(url, nil)
				if err != nil {
					continue
				}
				conn.ReadMessage() //nolint:errcheck
				conn.Close()
			}
		}()
	}
	wg.Wait()

	waitFor(t, func() bool { return h.Count() == 0 })

	// The broadcast loop must still be alive and serving new clients.
	conn := dial(t, srv)
	readMessage(t, conn)
}

func TestSlowSessionIsDropped(t *testing.T) {
	h, _, _ := testHub(t)

	s := &session{outbox: make(chan []byte, 1)}
	h.attach(s)
	if h.Count() != 1 {
		t.Fatal("session not attached")
	}

	// First broadcast fills the outbox; the second finds it full and
	// detaches the session instead of blocking or panicking.
	h.broadcast()
	h.broadcast()

	if h.Count() != 0 {
		t.Errorf("slow session still attached: %d", h.Count())
	}
	if _, ok := <-s.outbox; !ok {
		t.Error("outbox should hold the first payload")
	}
	if _, ok := <-s.outbox; ok {
		t.Error("outbox should be closed after detach")
	}

	// Detaching again is a no-op.
	h.detach(s)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
