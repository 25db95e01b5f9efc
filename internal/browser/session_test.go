package browser

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

type stubPage struct {
	playwright.Page
	closed bool
}

func (p *stubPage) IsClosed() bool { return p.closed }
func (p *stubPage) Close(options ...playwright.PageCloseOptions) error {
	p.closed = true
	return nil
}

func TestStartIsIdempotent(t *testing.T) {
	s := NewSession(Options{}, zap.NewNop())
	launches := 0
	s.launch = func() error {
		launches++
		s.page = &stubPage{}
		return nil
	}

	for i := 0; i < 3; i++ {
		if err := s.Start(context.Background()); err != nil {
			t.Fatalf("start %d: %v", i, err)
		}
	}
	if launches != 1 {
		t.Errorf("expected a single launch, got %d", launches)
	}
}

func TestConcurrentStartLaunchesOnce(t *testing.T) {
	s := NewSession(Options{}, zap.NewNop())
	launches := 0
	s.launch = func() error {
		launches++
		s.page = &stubPage{}
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Start(context.Background())
		}()
	}
	wg.Wait()

	if launches != 1 {
		t.Errorf("expected a single launch across concurrent starts, got %d", launches)
	}
	if !s.Ready() {
		t.Error("expected session to be ready")
	}
}

func TestStartRelaunchesAfterPageClosed(t *testing.T) {
	s := NewSession(Options{}, zap.NewNop())
	launches := 0
	s.launch = func() error {
		launches++
		s.page = &stubPage{}
		return nil
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.page.(*stubPage).closed = true

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if launches != 2 {
		t.Errorf("expected relaunch after the page died, got %d launches", launches)
	}
}

func TestStartFailureResetsState(t *testing.T) {
	s := NewSession(Options{}, zap.NewNop())
	boom := errors.New("chromium crashed")
	s.launch = func() error { return boom }

	if err := s.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if s.Ready() {
		t.Error("failed start must not report ready")
	}

	// A later start retries the launch.
	s.launch = func() error {
		s.page = &stubPage{}
		return nil
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Ready() {
		t.Error("expected recovery after successful relaunch")
	}
}

func TestCloseIsTerminalAndQuiet(t *testing.T) {
	s := NewSession(Options{}, zap.NewNop())
	s.launch = func() error {
		s.page = &stubPage{}
		return nil
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()
	if s.Ready() {
		t.Error("closed session must not be ready")
	}
}
