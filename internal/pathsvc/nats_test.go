package pathsvc

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

func TestRemote_PathOverNATS(t *testing.T) {
	ns, err := RunEmbeddedServer()
	if err != nil {
		t.Fatalf("embedded server: %v", err)
	}
	defer ns.Shutdown()

	workerConn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect worker: %v", err)
	}
	defer workerConn.Close()
	simConn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect sim: %v", err)
	}
	defer simConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := New(10, 1, WithWorkers(2))
	svc.Start(ctx)
	defer svc.Close()

	srv, err := Listen(ctx, workerConn, svc, "test.path", nil)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	served := make(chan error, 1)
	go func() { served <- srv.Run() }()

	remote, err := NewRemote(simConn, "test.path", 8, nil)
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	defer remote.Close()

	for _, w := range gapWalls {
		if err := remote.RegisterWall(ctx, w); err != nil {
			t.Fatalf("register wall: %v", err)
		}
	}
	id := uuid.New()
	if err := remote.Submit(Request{Start: nav.Cell{X: 0, Y: 0}, Goal: nav.Cell{X: 9, Y: 9}, RequesterID: id, Seq: 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	res := collect(t, remote.Results(), 1)[0]
	if res.RequesterID != id || res.Seq != 3 {
		t.Fatalf("result tagged %v/%d", res.RequesterID, res.Seq)
	}
	if nav.PathLength(res.Path) != 18 {
		t.Fatalf("expected 18 steps over NATS, got %d", nav.PathLength(res.Path))
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

// Walls registered with a context that has no deadline must still flush,
// and a wall published right after Listen returns must reach the worker.
func TestRemote_RegisterWallWithoutDeadline(t *testing.T) {
	ns, err := RunEmbeddedServer()
	if err != nil {
		t.Fatalf("embedded server: %v", err)
	}
	defer ns.Shutdown()

	workerConn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect worker: %v", err)
	}
	defer workerConn.Close()
	simConn, err := nats.Connect(ns.ClientURL())
	if err != nil {
		t.Fatalf("connect sim: %v", err)
	}
	defer simConn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc := New(10, 1, WithWorkers(1))
	svc.Start(ctx)
	defer svc.Close()

	srv, err := Listen(ctx, workerConn, svc, "test.nodeadline", nil)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Run()

	remote, err := NewRemote(simConn, "test.nodeadline", 8, nil)
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	defer remote.Close()

	w := gapWalls[0]
	if err := remote.RegisterWall(context.Background(), w); err != nil {
		t.Fatalf("register wall without deadline: %v", err)
	}
	// The flush round-trips through the server, but the worker handles the
	// message on its own connection; wait for it to land.
	deadline := time.Now().Add(3 * time.Second)
	for svc.Stats().Walls < 1 {
		if time.Now().After(deadline) {
			t.Fatal("wall never reached the worker")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
