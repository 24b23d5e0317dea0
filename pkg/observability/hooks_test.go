package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopScheduleHooks{}
	s.OnScheduleStart(ctx, 4, 4)
	s.OnScheduleComplete(ctx, 64, 2, time.Millisecond, nil)

	f := NoopFrameHooks{}
	f.OnFrameStart(ctx, 0, 1)
	f.OnFrameComplete(ctx, 0, 1, 9, time.Millisecond, nil)
	f.OnFrameRejected(ctx, 0, 1, errors.New("overlap"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "timeline")
	c.OnCacheMiss(ctx, "frame")
	c.OnCacheSet(ctx, "timeline", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Schedule().(NoopScheduleHooks); !ok {
		t.Error("Schedule() should default to NoopScheduleHooks")
	}
	if _, ok := Frame().(NoopFrameHooks); !ok {
		t.Error("Frame() should default to NoopFrameHooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should default to NoopCacheHooks")
	}

	custom := &testFrameHooks{}
	SetFrameHooks(custom)
	if Frame() != custom {
		t.Error("SetFrameHooks should install custom hooks")
	}
	SetFrameHooks(nil)
	if Frame() != custom {
		t.Error("SetFrameHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Frame().(NoopFrameHooks); !ok {
		t.Error("Reset() should restore NoopFrameHooks")
	}
}

func TestLogHooks(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	h := LogHooks{Logger: log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})}
	h.Register()

	ctx := context.Background()
	Cache().OnCacheHit(ctx, "timeline")
	Frame().OnFrameRejected(ctx, 2, 7, errors.New("gap"))

	out := buf.String()
	for _, want := range []string{"cache hit", "kind=timeline", "frame rejected", "trial=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type testFrameHooks struct{ NoopFrameHooks }
