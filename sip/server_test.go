package sip_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dchest/uniuri"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ghettovoice/sipcore/internal/log"
	"github.com/ghettovoice/sipcore/sip"
)

func newStatefulServer(tb testing.TB) *sip.StatefulServer {
	tb.Helper()
	return sip.NewStatefulServer(&sip.ServerOptions{Logger: log.Noop})
}

func TestStatefulServer_Register(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)
	srv.HandleFunc(sip.RequestMethodRegister, func(context.Context, *sip.Message) sip.Result {
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})

	got := srv.Process(t.Context(), []byte(registerReq))
	if string(got) != registerRes {
		t.Errorf("srv.Process(REGISTER) = %q, want %q", got, registerRes)
	}
}

type processor interface {
	HandleFunc(method sip.RequestMethod, fn func(ctx context.Context, req *sip.Message) sip.Result)
	Process(ctx context.Context, data []byte) []byte
}

func TestServer_Process(t *testing.T) {
	t.Parallel()

	const minimalRegister = "REGISTER sip:alice@example.com SIP/2.0\r\n" +
		"Via: SIP/2.0/UDP host:5060;branch=z9hG4bK776\r\n" +
		"Call-ID: abc123\r\n" +
		"CSeq: 1 REGISTER\r\n" +
		"\r\n"

	servers := []struct {
		name string
		new  func() processor
	}{
		{"stateful", func() processor { return newStatefulServer(t) }},
		{"stateless", func() processor { return sip.NewStatelessServer(&sip.ServerOptions{Logger: log.Noop}) }},
	}
	cases := []struct {
		name       string
		input      string
		wantStatus string
		wantHdrs   []string
	}{
		{
			"minimal register",
			minimalRegister,
			"SIP/2.0 200 OK",
			[]string{"Via: SIP/2.0/UDP host:5060;branch=z9hG4bK776", "Call-ID: abc123", "CSeq: 1 REGISTER"},
		},
		{
			"leading empty lines",
			"\r\n\r\n" + minimalRegister,
			"SIP/2.0 200 OK",
			[]string{"Call-ID: abc123"},
		},
		{
			"unregistered method",
			"OPTIONS sip:carol@example.com SIP/2.0\r\n\r\n",
			"SIP/2.0 501 Not Implemented",
			nil,
		},
	}

	for _, s := range servers {
		for _, c := range cases {
			t.Run(s.name+"/"+c.name, func(t *testing.T) {
				t.Parallel()

				srv := s.new()
				srv.HandleFunc(sip.RequestMethodRegister, func(context.Context, *sip.Message) sip.Result {
					return sip.Respond(sip.ResponseStatusOK, "OK")
				})

				res := string(srv.Process(t.Context(), []byte(c.input)))
				if got := statusLine([]byte(res)); got != c.wantStatus {
					t.Errorf("srv.Process() status line = %q, want %q", got, c.wantStatus)
				}
				for _, h := range c.wantHdrs {
					if !strings.Contains(res, "\r\n"+h+"\r\n") {
						t.Errorf("srv.Process() = %q, want header %q", res, h)
					}
				}
				for _, name := range []string{"request_method", "request_uri", "sip_version"} {
					if strings.Contains(strings.ToLower(res), name) {
						t.Errorf("srv.Process() = %q, want no %s pseudo-header", res, name)
					}
				}
			})
		}
	}
}

func TestStatefulServer_Retransmission(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)

	var calls atomic.Int32
	srv.HandleFunc(sip.RequestMethodRegister, func(context.Context, *sip.Message) sip.Result {
		calls.Add(1)
		// every invocation answers differently
		return sip.Reply([]byte("SIP/2.0 200 OK\r\nX-Nonce: " + uniuri.New() + "\r\n\r\n"))
	})

	first := srv.Process(t.Context(), []byte(registerReq))
	second := srv.Process(t.Context(), []byte(registerReq))
	if string(first) != string(second) {
		t.Errorf("srv.Process() retransmission = %q, want %q", second, first)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}

	tx, ok := srv.Transactions().Get(sip.TransactionKey{Branch: "z9hG4bKnashds7", Method: sip.RequestMethodRegister})
	if !ok {
		t.Fatal("srv.Transactions().Get() ok = false, want true")
	}
	if got := tx.State(); got != sip.TransactionStateCompleted {
		t.Errorf("tx.State() = %q, want %q", got, sip.TransactionStateCompleted)
	}
}

func TestStatefulServer_ConcurrentRetransmissions(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)

	var calls atomic.Int32
	release := make(chan struct{})
	srv.HandleFunc(sip.RequestMethodInvite, func(context.Context, *sip.Message) sip.Result {
		calls.Add(1)
		<-release
		return sip.Respond(sip.ResponseStatusBusyHere, "")
	})

	req := []byte(newRequest("INVITE", "z9hG4bK"+uniuri.New()))

	const n = 16
	results := make([][]byte, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() { results[i] = srv.Process(t.Context(), req) })
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("handler calls = %d, want 1", got)
	}
	for i, res := range results {
		if got, want := statusLine(res), "SIP/2.0 486 Busy Here"; got != want {
			t.Errorf("results[%d] status line = %q, want %q", i, got, want)
		}
		if string(res) != string(results[0]) {
			t.Errorf("results[%d] = %q, want %q", i, res, results[0])
		}
	}
}

func TestStatefulServer_UnregisteredMethod(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
	}{
		{"with transaction key", newRequest("OPTIONS", "z9hG4bK"+uniuri.New())},
		{"without headers", "OPTIONS sip:carol@example.com SIP/2.0\r\n\r\n"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			srv := newStatefulServer(t)

			_, err := srv.HandleMessage(t.Context(), mustParse(t, c.input))
			if diff := cmp.Diff(err, sip.ErrUnregisteredMethod, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("srv.HandleMessage() error = %v, want %v\ndiff (-got +want):\n%v", err, sip.ErrUnregisteredMethod, diff)
			}

			res := srv.Process(t.Context(), []byte(c.input))
			if got, want := statusLine(res), "SIP/2.0 501 Not Implemented"; got != want {
				t.Errorf("srv.Process() status line = %q, want %q", got, want)
			}
			if got := srv.Transactions().Len(); got != 0 {
				t.Errorf("srv.Transactions().Len() = %d, want 0", got)
			}
		})
	}
}

func TestStatefulServer_UnknownTransaction(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)
	res := "SIP/2.0 200 OK\r\n" +
		"Via: SIP/2.0/UDP pc33.example.com;branch=z9hG4bKunknown\r\n" +
		"Call-ID: a84b4c76e66710\r\n" +
		"CSeq: 1 INVITE\r\n" +
		"\r\n"

	_, err := srv.HandleMessage(t.Context(), mustParse(t, res))
	if diff := cmp.Diff(err, sip.ErrTransactionNotFound, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("srv.HandleMessage() error = %v, want %v\ndiff (-got +want):\n%v", err, sip.ErrTransactionNotFound, diff)
	}
	if status, _, _ := sip.ErrorStatus(err); status != sip.ResponseStatusCallTransactionDoesNotExist {
		t.Errorf("sip.ErrorStatus() = %d, want 481", status)
	}

	if got := srv.Process(t.Context(), []byte(res)); got != nil {
		t.Errorf("srv.Process(response) = %q, want nil", got)
	}
}

func TestStatefulServer_RecordResponse(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)

	req := mustParse(t, newRequest("BYE", "z9hG4bKbye"))
	key, _ := sip.TransactionKeyFromMessage(req)
	tx, _, err := srv.Transactions().LoadOrStore(key, req)
	if err != nil {
		t.Fatalf("srv.Transactions().LoadOrStore() error = %v, want nil", err)
	}

	resMsg := sip.NewResponse(req, sip.ResponseStatusOK, "")
	res, err := resMsg.ResponseBytes()
	if err != nil {
		t.Fatalf("resMsg.ResponseBytes() error = %v, want nil", err)
	}

	if got := srv.Process(t.Context(), res); got != nil {
		t.Errorf("srv.Process(response) = %q, want nil", got)
	}
	if got := tx.State(); got != sip.TransactionStateCompleted {
		t.Errorf("tx.State() = %q, want %q", got, sip.TransactionStateCompleted)
	}
	if got := string(tx.Response()); got != string(res) {
		t.Errorf("tx.Response() = %q, want %q", got, res)
	}
}

func TestStatefulServer_AckAbsorbed(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)
	srv.HandleFunc(sip.RequestMethodInvite, func(context.Context, *sip.Message) sip.Result {
		return sip.Reject(sip.ResponseStatusBusyHere, "")
	})
	var acks atomic.Int32
	srv.HandleFunc(sip.RequestMethodAck, func(context.Context, *sip.Message) sip.Result {
		acks.Add(1)
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})

	branch := "z9hG4bK" + uniuri.New()
	res := srv.Process(t.Context(), []byte(newRequest("INVITE", branch)))
	if got, want := statusLine(res), "SIP/2.0 486 Busy Here"; got != want {
		t.Errorf("srv.Process(INVITE) status line = %q, want %q", got, want)
	}

	if got := srv.Process(t.Context(), []byte(newRequest("ACK", branch))); got != nil {
		t.Errorf("srv.Process(ACK) = %q, want nil", got)
	}
	if got := acks.Load(); got != 0 {
		t.Errorf("ACK handler calls = %d, want 0", got)
	}

	// ACK outside of any transaction goes to the handler, never answered
	if got := srv.Process(t.Context(), []byte(newRequest("ACK", "z9hG4bK"+uniuri.New()))); got != nil {
		t.Errorf("srv.Process(ACK) = %q, want nil", got)
	}
	if got := acks.Load(); got != 1 {
		t.Errorf("ACK handler calls = %d, want 1", got)
	}
}

func TestStatefulServer_HandlerPanic(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)

	var calls atomic.Int32
	srv.HandleFunc(sip.RequestMethodMessage, func(context.Context, *sip.Message) sip.Result {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})

	req := []byte(newRequest("MESSAGE", "z9hG4bK"+uniuri.New()))

	res := srv.Process(t.Context(), req)
	if got, want := statusLine(res), "SIP/2.0 500 Server Internal Error"; got != want {
		t.Errorf("srv.Process() status line = %q, want %q", got, want)
	}

	res = srv.Process(t.Context(), req)
	if got, want := statusLine(res), "SIP/2.0 200 OK"; got != want {
		t.Errorf("srv.Process() retry status line = %q, want %q", got, want)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("handler calls = %d, want 2", got)
	}
}

func TestStatefulServer_Reject(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)
	srv.HandleFunc(sip.RequestMethodSubscribe, func(context.Context, *sip.Message) sip.Result {
		return sip.Reject(sip.ResponseStatusForbidden, "Go Away")
	})

	res := srv.Process(t.Context(), []byte(newRequest("SUBSCRIBE", "z9hG4bK"+uniuri.New())))
	msg := mustParse(t, string(res))
	l, ok := msg.StatusLine()
	if !ok {
		t.Fatalf("response %q is not a response", res)
	}
	if l.Status != sip.ResponseStatusForbidden || l.Reason != "Go Away" {
		t.Errorf("status line = %v, want 403 Go Away", l)
	}
	if got, _ := msg.Headers.CallID(); got != "1j9FpLxk3uxtm8tn@biloxi.example.com" {
		t.Errorf("msg.Headers.CallID() = %q, want request Call-ID", got)
	}
}

func TestServer_Process_BadRequest(t *testing.T) {
	t.Parallel()

	srv := newStatefulServer(t)
	srv.HandleFunc(sip.RequestMethodInvite, func(context.Context, *sip.Message) sip.Result {
		t.Error("handler called on malformed request")
		return sip.Result{}
	})

	cases := []struct {
		name  string
		input string
		want  []byte
	}{
		{"keep-alive", "\r\n\r\n", nil},
		{"garbage", "HELLO WORLD\r\n\r\n", []byte("SIP/2.0 400 Bad Request\r\n\r\n")},
		{"short request line", "INVITE sip:bob@example.com\r\n\r\n", []byte("SIP/2.0 400 Bad Request\r\n\r\n")},
		{
			"bad header",
			"INVITE sip:bob@example.com SIP/2.0\r\n" +
				"Call-ID: a84b4c76e66710\r\n" +
				"CSeq: one INVITE\r\n" +
				"\r\n",
			[]byte("SIP/2.0 400 Bad Request\r\n" +
				"Call-ID: a84b4c76e66710\r\n" +
				"\r\n"),
		},
		{
			"no transaction key",
			"INVITE sip:bob@example.com SIP/2.0\r\n\r\n",
			[]byte("SIP/2.0 400 Bad Request\r\n\r\n"),
		},
		{"bad response", "SIP/2.0 200 OK\r\nCSeq: x\r\n\r\n", nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got := srv.Process(t.Context(), []byte(c.input))
			if string(got) != string(c.want) {
				t.Errorf("srv.Process(%q) = %q, want %q", c.input, got, c.want)
			}
		})
	}
}

func TestStatelessServer(t *testing.T) {
	t.Parallel()

	srv := sip.NewStatelessServer(&sip.ServerOptions{Logger: log.Noop})

	var calls atomic.Int32
	srv.HandleFunc(sip.RequestMethodRegister, func(_ context.Context, req *sip.Message) sip.Result {
		calls.Add(1)
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})

	for range 2 {
		if got := srv.Process(t.Context(), []byte(registerReq)); string(got) != registerRes {
			t.Errorf("srv.Process(REGISTER) = %q, want %q", got, registerRes)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("handler calls = %d, want 2", got)
	}

	res, err := srv.HandleMessage(t.Context(), mustParse(t, registerRes))
	if res != nil || err != nil {
		t.Errorf("srv.HandleMessage(response) = (%q, %v), want (nil, nil)", res, err)
	}

	_, err = srv.HandleMessage(t.Context(), mustParse(t, newRequest("INFO", "z9hG4bKinfo")))
	if diff := cmp.Diff(err, sip.ErrUnregisteredMethod, cmpopts.EquateErrors()); diff != "" {
		t.Errorf("srv.HandleMessage(INFO) error = %v, want %v\ndiff (-got +want):\n%v", err, sip.ErrUnregisteredMethod, diff)
	}
}

// idleTransport serves nothing until ctx is done.
type idleTransport struct{ started chan<- struct{} }

func (tp idleTransport) Serve(ctx context.Context, _ sip.Processor) error {
	tp.started <- struct{}{}
	<-ctx.Done()
	return sip.ErrTransportClosed
}

func TestStatefulServer_Serve_SharedEviction(t *testing.T) {
	t.Parallel()

	srv := sip.NewStatefulServer(&sip.ServerOptions{
		Logger:           log.Noop,
		TransactionTable: &sip.TransactionTableOptions{LingerTime: 20 * time.Millisecond},
	})
	srv.HandleFunc(sip.RequestMethodOptions, func(context.Context, *sip.Message) sip.Result {
		return sip.Respond(sip.ResponseStatusOK, "OK")
	})

	started := make(chan struct{})
	ctx1, cancel1 := context.WithCancel(t.Context())
	ctx2, cancel2 := context.WithCancel(t.Context())
	defer cancel2()

	var wg sync.WaitGroup
	for _, ctx := range []context.Context{ctx1, ctx2} {
		wg.Go(func() {
			if err := srv.Serve(ctx, idleTransport{started}); !errors.Is(err, sip.ErrTransportClosed) {
				t.Errorf("srv.Serve() error = %v, want %v", err, sip.ErrTransportClosed)
			}
		})
	}
	<-started
	<-started

	// the first listener stops, eviction must keep running for the second one
	cancel1()
	if res := srv.Process(t.Context(), []byte(newRequest("OPTIONS", "z9hG4bK"+uniuri.New()))); res == nil {
		t.Fatal("srv.Process(OPTIONS) = nil, want response")
	}

	deadline := time.Now().Add(time.Second)
	for srv.Transactions().Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := srv.Transactions().Len(); got != 0 {
		t.Errorf("srv.Transactions().Len() = %d after linger, want 0", got)
	}

	cancel2()
	wg.Wait()
}
