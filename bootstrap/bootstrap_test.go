package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cemint/cemint-insights/component"
	"github.com/cemint/cemint-insights/config"
	"github.com/cemint/cemint-insights/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	status   component.HealthStatus
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) component.Health {
	status := m.status
	if status == "" {
		status = component.StatusHealthy
	}
	return component.Health{Name: m.name, Status: status}
}

type describedComponent struct{ mockComponent }

func (d *describedComponent) Describe() component.Description {
	return component.Description{Name: "Storage", Type: "storage", Details: "provider=local"}
}

func newTestApp(t *testing.T, opts ...Option) (*App[*testConfig], *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "cemint", Version: "1.0.0"}}
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryOutput(&out)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app, &out
}

func TestNewApp(t *testing.T) {
	app, _ := newTestApp(t)
	if app.Name != "cemint" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected defaults applied, got env %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("unexpected default timeout %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	if _, err := NewApp(&testConfig{}, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected validation error for missing name")
	}
}

func TestShutdownTimeout(t *testing.T) {
	app, _ := newTestApp(t, WithShutdownTimeout(3*time.Second))
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", app.gracefulTimeout)
	}

	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "cemint", ShutdownTimeout: time.Minute}}
	app, err := NewApp(cfg, WithLogger(logger.NewNop()), WithShutdownTimeout(0))
	if err != nil {
		t.Fatal(err)
	}
	if app.gracefulTimeout != time.Minute {
		t.Errorf("expected config timeout, got %v", app.gracefulTimeout)
	}
}

func TestRunTaskLifecycle(t *testing.T) {
	app, out := newTestApp(t)
	storage := &describedComponent{mockComponent{name: "storage"}}
	if err := app.RegisterComponent(storage); err != nil {
		t.Fatal(err)
	}

	var order []string
	app.OnStart(func(context.Context) error { order = append(order, "start"); return nil })
	app.OnConfigure(func(_ context.Context, a *App[*testConfig]) error {
		order = append(order, "configure:"+a.Name)
		return nil
	})
	app.OnReady(func(context.Context) error { order = append(order, "ready"); return nil })
	app.OnStop(func(context.Context) error { order = append(order, "stop"); return nil })

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}

	want := "start,configure:cemint,ready,task,stop"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if !storage.started || !storage.stopped {
		t.Error("component should be started and stopped")
	}
	if !strings.Contains(out.String(), "[healthy] Storage: provider=local") {
		t.Errorf("summary missing component line:\n%s", out.String())
	}
}

func TestRunTaskErrorWinsOverStopError(t *testing.T) {
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "kafka", stopErr: fmt.Errorf("close failed")})

	taskErr := errors.New("no files found")
	if err := app.RunTask(context.Background(), func(context.Context) error { return taskErr }); !errors.Is(err, taskErr) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestRunTaskStopErrorReported(t *testing.T) {
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "kafka", stopErr: fmt.Errorf("close failed")})

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "close failed") {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestRunTaskComponentStartError(t *testing.T) {
	app, _ := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "storage", startErr: fmt.Errorf("bucket missing")})

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || !strings.Contains(err.Error(), "initialization failed") {
		t.Errorf("expected initialization error, got %v", err)
	}
	if ran {
		t.Error("task must not run when startup fails")
	}
}

func TestConfigureErrorStopsStartedComponents(t *testing.T) {
	app, _ := newTestApp(t)
	c := &mockComponent{name: "storage"}
	_ = app.RegisterComponent(c)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return fmt.Errorf("bad wiring") })

	err := app.RunTask(context.Background(), func(context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "configuration failed") {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !c.stopped {
		t.Error("started component should be stopped after failed startup")
	}
}

func TestReadyCheck(t *testing.T) {
	app, _ := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("empty registry should be ready: %v", err)
	}
	_ = app.RegisterComponent(&mockComponent{name: "kafka", status: component.StatusDegraded})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "kafka=degraded") {
		t.Errorf("expected degraded component reported, got %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app, _ := newTestApp(t)
	c := &mockComponent{name: "http-server"}
	_ = app.RegisterComponent(c)

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error { cancel(); return nil })

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !c.stopped {
		t.Error("component should be stopped after cancellation")
	}
}

func TestSummaryUnhealthy(t *testing.T) {
	var out bytes.Buffer
	r := component.NewRegistry(nil)
	_ = r.Register(&mockComponent{name: "kafka", status: component.StatusUnhealthy})
	_ = r.Register(&mockComponent{name: "storage"})

	s := NewSummary("cemint", "1.0.0", &out)
	s.Display(context.Background(), r)

	text := out.String()
	if !strings.Contains(text, "[unhealthy] kafka") || !strings.Contains(text, "(1/2 healthy)") {
		t.Errorf("unexpected summary:\n%s", text)
	}
}

func TestSummaryNilRegistry(t *testing.T) {
	var out bytes.Buffer
	NewSummary("cemint", "1.0.0", &out).Display(context.Background(), nil)
	if !strings.Contains(out.String(), "cemint v1.0.0 started") {
		t.Errorf("unexpected header %q", out.String())
	}
}
