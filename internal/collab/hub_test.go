package collab

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/go-cmp/cmp"
)

type fakeScene struct {
	seq     int64
	applied []Operation
}

func (f *fakeScene) Sync() (json.RawMessage, int64, error) {
	return json.RawMessage(`[]`), f.seq, nil
}

func (f *fakeScene) Apply(op Operation) (int64, json.RawMessage, error) {
	if op.Type != OpShapeBake {
		return 0, nil, errors.New("unsupported")
	}
	f.seq++
	f.applied = append(f.applied, op)
	return f.seq, json.RawMessage(`{"id":1}`), nil
}

func newTestClient(h *Hub, id string) *Client {
	return NewClient(h, nil, "user-"+id, "User "+id, id)
}

// drain returns the types of queued messages.
func drain(t *testing.T, c *Client) []Message {
	t.Helper()
	var out []Message
	for {
		select {
		case data := <-c.send:
			var m Message
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatal(err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	var out []string
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestJoinSendsWelcomeSyncAndPresence(t *testing.T) {
	h := NewHub(&fakeScene{seq: 7})
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	h.addClient(a)
	drain(t, a)
	h.addClient(b)

	got := drain(t, b)
	if diff := cmp.Diff([]string{TypeWelcome, TypeSceneSync, TypePresenceState}, types(got)); diff != "" {
		t.Errorf("joiner messages (-want +got):\n%s", diff)
	}
	var sync SceneSyncPayload
	json.Unmarshal(got[1].Payload, &sync)
	if sync.ServerSeq != 7 || string(sync.Scene) != "[]" {
		t.Errorf("sync = %+v", sync)
	}

	if diff := cmp.Diff([]string{TypePresenceJoin}, types(drain(t, a))); diff != "" {
		t.Errorf("existing client messages (-want +got):\n%s", diff)
	}

	h.removeClient(b)
	if diff := cmp.Diff([]string{TypePresenceLeave}, types(drain(t, a))); diff != "" {
		t.Errorf("leave (-want +got):\n%s", diff)
	}
	if h.Len() != 1 {
		t.Errorf("len = %d", h.Len())
	}
	b.Send(&Message{Type: TypeError}) // must not panic after close
}

func TestOpSubmitAckAndBroadcast(t *testing.T) {
	scene := &fakeScene{}
	h := NewHub(scene)
	a, b := newTestClient(h, "a"), newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)
	drain(t, a)
	drain(t, b)

	id := 1
	submit, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{Type: OpShapeBake, ShapeID: &id}})
	h.handleMessage(a, &Message{Type: TypeOpSubmit, Payload: submit})

	got := drain(t, a)
	if diff := cmp.Diff([]string{TypeOpAck}, types(got)); diff != "" {
		t.Fatalf("sender (-want +got):\n%s", diff)
	}
	var ack OperationAckPayload
	json.Unmarshal(got[0].Payload, &ack)
	if ack.ServerSeq != 1 || ack.OperationID == "" {
		t.Errorf("ack = %+v", ack)
	}

	got = drain(t, b)
	if diff := cmp.Diff([]string{TypeOpBroadcast}, types(got)); diff != "" {
		t.Fatalf("others (-want +got):\n%s", diff)
	}
	var bc OperationBroadcastPayload
	json.Unmarshal(got[0].Payload, &bc)
	if bc.Operation.ID != ack.OperationID || bc.UserID != "user-a" || string(bc.Result) != `{"id":1}` {
		t.Errorf("broadcast = %+v", bc)
	}
}

func TestOpSubmitNack(t *testing.T) {
	h := NewHub(&fakeScene{})
	a, b := newTestClient(h, "a"), newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)
	drain(t, a)
	drain(t, b)

	submit, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{ID: "op_x", Type: "shape.explode"}})
	h.handleMessage(a, &Message{Type: TypeOpSubmit, Payload: submit})

	got := drain(t, a)
	if len(got) != 1 || got[0].Type != TypeOpNack {
		t.Fatalf("sender got %v", types(got))
	}
	var nack OperationNackPayload
	json.Unmarshal(got[0].Payload, &nack)
	if nack.OperationID != "op_x" || nack.Reason != "unsupported" {
		t.Errorf("nack = %+v", nack)
	}
	if len(drain(t, b)) != 0 {
		t.Error("rejected op was broadcast")
	}

	h.handleMessage(a, &Message{Type: "bogus"})
	if got := types(drain(t, a)); len(got) != 1 || got[0] != TypeError {
		t.Errorf("unknown type reply = %v", got)
	}
}

func TestPresenceClearedOnDelete(t *testing.T) {
	h := NewHub(&fakeScene{})
	a := newTestClient(h, "a")
	b := newTestClient(h, "b")
	h.addClient(a)
	h.addClient(b)
	drain(t, a)
	drain(t, b)

	sel := 3
	payload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 1, Y: 2}, Selection: &sel, DisplayName: "spoofed"})
	h.handleMessage(a, &Message{Type: TypePresenceUpdate, Payload: payload})

	got := drain(t, b)
	if len(got) != 1 || got[0].Type != TypePresenceUpdate || got[0].ClientID != "a" {
		t.Fatalf("b received %+v", got)
	}
	var seen PresencePayload
	json.Unmarshal(got[0].Payload, &seen)
	if seen.DisplayName != "User a" || seen.UserID != "user-a" {
		t.Errorf("identity not stamped: %+v", seen)
	}

	h.Publish(Operation{Type: OpShapeDelete, ShapeID: &sel}, "http", 1, nil)
	p, ok := h.presence.Get("a")
	if !ok || p.Selection != nil || p.Cursor == nil {
		t.Errorf("presence = %+v", p)
	}
	if diff := cmp.Diff([]string{TypeOpBroadcast, TypePresenceUpdate}, types(drain(t, b))); diff != "" {
		t.Errorf("b after delete (-want +got):\n%s", diff)
	}
}

func TestPresenceKeyedByConnection(t *testing.T) {
	h := NewHub(&fakeScene{})
	tab1 := NewClient(h, nil, "operator", "operator", "tab1")
	tab2 := NewClient(h, nil, "operator", "operator", "tab2")
	h.addClient(tab1)
	h.addClient(tab2)

	payload, _ := json.Marshal(PresencePayload{Cursor: &CursorPos{X: 5, Y: 5}})
	h.handleMessage(tab1, &Message{Type: TypePresenceUpdate, Payload: payload})
	h.handleMessage(tab2, &Message{Type: TypePresenceUpdate, Payload: payload})

	h.removeClient(tab1)
	if _, ok := h.presence.Get("tab2"); !ok {
		t.Error("closing one tab dropped the other's presence")
	}
	if len(h.presence.GetAll()) != 1 {
		t.Errorf("presences = %v", h.presence.GetAll())
	}
}

func TestWebsocketSession(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h := NewHub(&fakeScene{})
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(h, conn, "anon", "Anonymous", "c1")
		h.Register(c)
		go c.WritePump(r.Context())
		c.ReadPump(r.Context())
	}))
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() Message {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatal(err)
		}
		var m Message
		json.Unmarshal(data, &m)
		return m
	}
	for _, want := range []string{TypeWelcome, TypeSceneSync, TypePresenceState} {
		if m := read(); m.Type != want {
			t.Fatalf("got %q, want %q", m.Type, want)
		}
	}

	id := 0
	submit, _ := json.Marshal(OperationSubmitPayload{Operation: Operation{Type: OpShapeBake, ShapeID: &id}})
	msg, _ := json.Marshal(Message{Type: TypeOpSubmit, Payload: submit})
	if err := conn.Write(ctx, websocket.MessageText, msg); err != nil {
		t.Fatal(err)
	}
	if m := read(); m.Type != TypeOpAck || m.Seq != 1 {
		t.Errorf("reply = %+v", m)
	}
}
