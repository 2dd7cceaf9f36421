// Command canflyctl encodes, decodes, simulates and replays CanFly traffic.
//
//	canflyctl [-config file] encode [-type t] <id|name> [value]
//	canflyctl [-config file] decode <id>#<hex> ...
//	canflyctl [-config file] sim [-duration d]
//	canflyctl [-config file] replay <capture>
//
// sim runs a node on an in-memory bus and watches it. With http_addr set in
// the config it serves the watched state and prometheus metrics over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notnil/canfly"
	"github.com/notnil/canfly/canbus"
	"github.com/notnil/canfly/capture"
	"github.com/notnil/canfly/catalog"
	"github.com/notnil/canfly/monitor"
	"github.com/notnil/canfly/node"
)

type app struct {
	cfg    config
	cat    *catalog.Catalog
	logger *slog.Logger
	stdout io.Writer
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "canflyctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("canflyctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "node config file (TOML)")
	catalogPath := fs.String("catalog", "", "parameter catalog file (TOML), overrides config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("missing command (supported: encode, decode, sim, replay)")
	}

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *catalogPath != "" {
		cfg.Catalog = *catalogPath
	}

	a := &app{cfg: cfg, logger: newLogger(stderr, cfg.LogLevel), stdout: stdout}
	if cfg.Catalog != "" {
		cat, err := catalog.Load(cfg.Catalog)
		if err != nil {
			return err
		}
		a.cat = cat
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "encode":
		return a.encode(rest)
	case "decode":
		return a.decode(rest)
	case "sim":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.sim(ctx, rest)
	case "replay":
		return a.replay(rest)
	}
	return fmt.Errorf("unknown command %q (supported: encode, decode, sim, replay)", cmd)
}

func (a *app) encode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	typeName := fs.String("type", "", "wire type (defaults to the catalog type, or inferred from the value)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return errors.New("usage: encode [-type t] <id|name> [value]")
	}
	raw := ""
	if fs.NArg() == 2 {
		raw = fs.Arg(1)
	}

	id, typ, declared, err := a.target(fs.Arg(0), *typeName)
	if err != nil {
		return err
	}
	var m canfly.Message
	if declared {
		v, err := parseTyped(typ, raw)
		if err != nil {
			return err
		}
		m, err = canfly.EncodeAs(id, v, typ)
		if err != nil {
			return err
		}
	} else {
		v, err := parseValue(raw)
		if err != nil {
			return err
		}
		m, err = canfly.Encode(id, v)
		if err != nil {
			return err
		}
	}
	f, err := m.MarshalCANFrame()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s\t%s\n", formatFrame(f), m)
	return nil
}

// target resolves the id and wire type of an encode request. The type comes
// from -type, then from the catalog; declared is false when neither names one.
func (a *app) target(ref, typeName string) (id uint16, typ canfly.Type, declared bool, err error) {
	if typeName != "" {
		typ, err = canfly.ParseType(typeName)
		if err != nil {
			return 0, 0, false, err
		}
		declared = true
	}
	if n, perr := strconv.ParseUint(ref, 0, 16); perr == nil {
		if n > canbus.MaxID {
			return 0, 0, false, fmt.Errorf("%w: id %d", canfly.ErrBadParameter, n)
		}
		if !declared && a.cat != nil {
			if e, ok := a.cat.ByID(uint16(n)); ok {
				typ, declared = e.Type, true
			}
		}
		return uint16(n), typ, declared, nil
	}
	if a.cat == nil {
		return 0, 0, false, fmt.Errorf("%q is not an id and no catalog is loaded", ref)
	}
	e, ok := a.cat.ByName(ref)
	if !ok {
		return 0, 0, false, fmt.Errorf("unknown parameter %q", ref)
	}
	if !declared {
		typ, declared = e.Type, true
	}
	return e.ID, typ, declared, nil
}

// parseTyped reads raw for an encode of type typ. Integer kinds accept any
// value parseValue understands and leave range checks to the coercion.
func parseTyped(typ canfly.Type, raw string) (canfly.Variant, error) {
	raw = strings.TrimSpace(raw)
	kind, ok := typ.Kind()
	if !ok {
		return canfly.Variant{}, fmt.Errorf("%w: cannot encode %s values", canfly.ErrBadType, typ)
	}
	switch kind {
	case canfly.KindNone:
		if raw != "" {
			return canfly.Variant{}, fmt.Errorf("%w: %s carries no value", canfly.ErrBadParameter, typ)
		}
		return canfly.VariantNone(), nil
	case canfly.KindUTC:
		return parseUTC(raw)
	case canfly.KindFloat:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return canfly.Variant{}, fmt.Errorf("%w: %q is not a number", canfly.ErrBadParameter, raw)
		}
		return canfly.VariantFloat(float32(f)), nil
	}
	if raw == "" {
		return canfly.Variant{}, fmt.Errorf("%w: %s needs a value", canfly.ErrBadParameter, typ)
	}
	return parseValue(raw)
}

// parseValue infers a variant from raw: empty is none, true/false are bool,
// integers become int32 or uint32, decimals become float and RFC 3339 times
// become UTC.
func parseValue(raw string) (canfly.Variant, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return canfly.VariantNone(), nil
	case "true":
		return canfly.VariantBool(true), nil
	case "false":
		return canfly.VariantBool(false), nil
	}
	if n, err := strconv.ParseInt(raw, 0, 64); err == nil {
		switch {
		case n >= math.MinInt32 && n <= math.MaxInt32:
			return canfly.VariantInt32(int32(n)), nil
		case n >= 0 && n <= math.MaxUint32:
			return canfly.VariantUint32(uint32(n)), nil
		}
		return canfly.Variant{}, fmt.Errorf("%w: %d does not fit 32 bits", canfly.ErrOutOfRange, n)
	}
	if f, err := strconv.ParseFloat(raw, 32); err == nil {
		return canfly.VariantFloat(float32(f)), nil
	}
	if v, err := parseUTC(raw); err == nil {
		return v, nil
	}
	return canfly.Variant{}, fmt.Errorf("%w: cannot parse value %q", canfly.ErrBadParameter, raw)
}

func parseUTC(raw string) (canfly.Variant, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return canfly.Variant{}, fmt.Errorf("%w: %v", canfly.ErrBadParameter, err)
	}
	return canfly.VariantUTC(canfly.UTCFromTime(t)), nil
}

func (a *app) decode(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: decode <id>#<hex> ...")
	}
	describe := a.describer()
	for _, arg := range args {
		f, err := parseFrame(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s\t%s\n", formatFrame(f), describe(f))
	}
	return nil
}

// describer renders frames as status records, catalog values or raw decoded
// variants, in that order of preference.
func (a *app) describer() canbus.FrameDescriber {
	return func(f canbus.Frame) string {
		m, err := canfly.FromFrame(f)
		if err != nil {
			return f.String()
		}
		if canfly.IsStatus(m) {
			var s canfly.Status
			if err := canfly.GetStatus(&m, &s); err != nil {
				return m.String()
			}
			return fmt.Sprintf("status node=%d state=%s board=%d serial=%d", s.Node, s.State, s.BoardType, s.Serial)
		}
		if a.cat != nil {
			if _, ok := a.cat.ByID(m.ID()); ok {
				return a.cat.Describe(m)
			}
		}
		v, err := canfly.Decode(m)
		if err != nil {
			return m.String()
		}
		return v.String()
	}
}

func (a *app) sim(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sim", flag.ContinueOnError)
	duration := fs.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	bus := canbus.NewLoopbackBus()
	defer bus.Close()
	describe := a.describer()

	reg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(reg)
	state := monitor.NewState(a.cat, metrics)

	tx := canbus.NewLoggedBus(metrics.Bus(bus.Open()), a.logger, slog.LevelDebug, canbus.LogWrite, canbus.WithDescriber(describe))
	rx := metrics.Bus(bus.Open())
	if a.cfg.Capture != "" {
		if err := os.MkdirAll(filepath.Dir(a.cfg.Capture), 0o755); err != nil {
			return fmt.Errorf("create capture dir: %w", err)
		}
		out, err := os.Create(a.cfg.Capture)
		if err != nil {
			return fmt.Errorf("create capture: %w", err)
		}
		defer out.Close()
		w := capture.NewWriter(out)
		rx = capture.NewRecordingBus(rx, w, func(err error) {
			a.logger.Warn("capture write failed", "err", err)
		})
	}
	mux := canbus.NewMux(rx)

	statuses, cancelStatus := node.SubscribeStatus(mux, nil, 16)
	defer cancelStatus()
	params, cancelParams := node.SubscribeParams(mux, 64)
	defer cancelParams()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		state.Watch(statuses, params, a.logger)
	}()

	var srv *http.Server
	if a.cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
		if err != nil {
			mux.Close()
			wg.Wait()
			return fmt.Errorf("listen %s: %w", a.cfg.HTTPAddr, err)
		}
		srv = &http.Server{Handler: monitor.NewRouter(state, reg), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("monitor http server failed", "err", err)
			}
		}()
		a.logger.Info("monitor listening", "addr", ln.Addr().String())
	}

	pub, err := node.NewStatusPublisher(tx, canfly.Status{
		Node:      a.cfg.NodeID,
		BoardType: a.cfg.BoardType,
		State:     canfly.StatusStarting,
		Serial:    a.cfg.Serial,
	}, a.cfg.StatusInterval, a.logger)
	if err != nil {
		mux.Close()
		wg.Wait()
		return err
	}
	a.logger.Info("sim started", "node", a.cfg.NodeID, "interval", a.cfg.StatusInterval, "capture", a.cfg.Capture)
	pub.Start(ctx)
	pub.SetState(canfly.StatusRunning)

	a.feed(ctx, tx)

	pub.Stop()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}
	mux.Close()
	wg.Wait()
	if err := mux.Err(); err != nil && !errors.Is(err, canbus.ErrClosed) {
		return err
	}
	a.logger.Info("sim stopped", "nodes", len(state.Nodes()), "params", len(state.Params()))
	return nil
}

// feed publishes a value for every catalog entry each status interval until
// ctx is done.
func (a *app) feed(ctx context.Context, bus canbus.Bus) {
	ticker := time.NewTicker(a.cfg.StatusInterval)
	defer ticker.Stop()
	var tick uint8
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if a.cat == nil {
				continue
			}
			for _, e := range a.cat.Entries() {
				m, err := a.cat.Encode(e.Name, simValue(e, tick, now))
				if err != nil {
					a.logger.Warn("sim encode failed", "param", e.Name, "err", err)
					continue
				}
				if err := node.Send(ctx, bus, m); err != nil {
					if ctx.Err() != nil {
						return
					}
					a.logger.Warn("sim send failed", "param", e.Name, "err", err)
				}
			}
			tick = (tick + 1) % 100
		}
	}
}

func simValue(e catalog.Entry, tick uint8, now time.Time) canfly.Variant {
	kind, _ := e.Type.Kind()
	switch kind {
	case canfly.KindNone:
		return canfly.VariantNone()
	case canfly.KindBool:
		return canfly.VariantBool(tick%2 == 0)
	case canfly.KindUTC:
		return canfly.VariantUTC(canfly.UTCFromTime(now))
	}
	return canfly.VariantUint8(tick)
}

func (a *app) replay(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: replay <capture>")
	}
	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer in.Close()

	describe := a.describer()
	r := capture.NewReader(in)
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		f, err := rec.Frame()
		if err != nil {
			a.logger.Warn("skipping bad record", "at", rec.At, "err", err)
			continue
		}
		fmt.Fprintf(a.stdout, "%s %s %s\t%s\n", rec.At.UTC().Format(time.RFC3339Nano), rec.Dir, formatFrame(f), describe(f))
	}
}
