package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"audioroute/audio"
	"audioroute/beep"
	"audioroute/bluez"
	"audioroute/log"
	"audioroute/route"
	"audioroute/watch"
)

type daemon struct {
	engine *route.Engine
	// chime is nil when chimes are off.
	chime    func(beep.Kind)
	requests atomic.Int64
}

func (d *daemon) handleRequest(req IPCRequest) IPCResponse {
	d.requests.Add(1)

	switch req.Command {
	case "status":
		resp := IPCResponse{Bluetooth: d.engine.HasBluetoothDevice()}
		stateFields(&resp, d.engine.State())
		resp.Devices = deviceList(d.engine.Inventory())
		return resp

	case "bluetooth":
		return IPCResponse{Bluetooth: d.engine.HasBluetoothDevice()}

	case "set":
		var resp IPCResponse
		r, err := route.Parse(req.Route)
		if err != nil {
			errorFields(&resp, err)
			stateFields(&resp, d.engine.State())
		} else {
			st, err := d.engine.SetAudioRoute(r)
			errorFields(&resp, err)
			stateFields(&resp, st)
			if d.chime != nil && errors.Is(err, route.ErrSessionConfiguration) {
				d.chime(beep.KindError)
			}
		}
		resp.Bluetooth = d.engine.HasBluetoothDevice()
		return resp

	default:
		return IPCResponse{Error: fmt.Sprintf("unknown command: %q", req.Command)}
	}
}

func (d *daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	var req IPCRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		resp := IPCResponse{Error: "invalid request: " + err.Error()}
		json.NewEncoder(conn).Encode(resp)
		return
	}

	resp := d.handleRequest(req)
	json.NewEncoder(conn).Encode(resp)
}

// announce reports route changes, including the ones the engine makes on
// its own when devices come and go.
func (d *daemon) announce(events <-chan route.Event) {
	for ev := range events {
		if ev.Cause == route.CauseReconcile {
			log.Info(fmt.Sprintf("route_reconciled: %s -> %s", ev.State.Requested, ev.State.Active))
		}
		if d.chime == nil {
			continue
		}
		if ev.State.Fallback() {
			d.chime(beep.KindFallback)
		} else {
			d.chime(beep.ForRoute(ev.State.Active))
		}
	}
}

// serve accepts connections until ln is closed.
func (d *daemon) serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go d.handleConn(conn)
	}
}

func listenSocket(sock string) (net.Listener, error) {
	os.Remove(sock) // stale socket from a previous run
	ln, err := net.Listen("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", sock, err)
	}
	os.Chmod(sock, 0600)
	return ln, nil
}

func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Info("metrics listening on " + addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("metrics server: %v", err)
	}
}

// hostConn is the sound server session plus, when reachable, BlueZ. A
// missing BlueZ only means Bluetooth devices are trusted as reported by the
// sound server.
type hostConn struct {
	session audio.Session
	bt      *bluez.Client
	btErr   error
}

func (h *hostConn) Close() {
	h.session.Close()
	if h.bt != nil {
		h.bt.Close()
	}
}

func openHost(cfg *Config) (*hostConn, error) {
	if cfg.Fake {
		s, err := audio.Open(func() (audio.Session, error) { return audio.NewFakeSession(), nil })
		if err != nil {
			return nil, err
		}
		return &hostConn{session: s, btErr: errors.New("fake session")}, nil
	}

	h := &hostConn{}
	var checker audio.BluetoothChecker
	h.bt, h.btErr = bluez.Dial()
	if h.btErr != nil {
		log.Warnf("bluetooth state unavailable: %v", h.btErr)
	} else {
		checker = h.bt
	}
	s, err := audio.Open(func() (audio.Session, error) { return audio.NewSession(checker) })
	if err != nil {
		if h.bt != nil {
			h.bt.Close()
		}
		return nil, err
	}
	h.session = s
	return h, nil
}

func runDaemon(ctx context.Context, cfg *Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	h, err := openHost(cfg)
	if err != nil {
		return err
	}
	defer h.Close()
	host := h.session

	backend := backendName
	if cfg.Fake {
		backend = "fake"
	}
	log.SessionStart(backend, cfg.Socket)

	hints := platformHints(ctx)
	if h.bt != nil {
		if ch, err := h.bt.Watch(ctx); err != nil {
			log.Warnf("bluetooth watch: %v", err)
		} else {
			hints = append(hints, ch)
		}
	}
	mon := watch.NewMonitor(host, cfg.PollInterval, hints...)

	eng := route.New(host)
	defer eng.Close()
	d := &daemon{engine: eng}
	if cfg.Chime {
		d.chime = beep.Play
	}
	go d.announce(eng.Subscribe(16))

	if err := eng.Start(mon); err != nil {
		log.Warnf("default route: %v", err)
		fmt.Fprintf(os.Stderr, "Warning: could not apply default route: %v\n", err)
	}
	go mon.Run(ctx)

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, cfg.MetricsAddr)
	}

	ln, err := listenSocket(cfg.Socket)
	if err != nil {
		return err
	}
	defer os.Remove(cfg.Socket)
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		ln.Close()
	}()

	fmt.Fprintf(os.Stderr, "listening on %s\n", cfg.Socket)
	err = d.serve(ln)
	log.SessionEnd(int(d.requests.Load()))
	return err
}
