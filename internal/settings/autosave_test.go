package settings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wedding-invitation/internal/testutil"
)

type recordingSaver struct {
	mu      sync.Mutex
	patches []Patch
	fail    error
	block   chan struct{}
	active  int32
	overlap bool
}

func (r *recordingSaver) save(ctx context.Context, p Patch) error {
	if atomic.AddInt32(&r.active, 1) > 1 {
		r.mu.Lock()
		r.overlap = true
		r.mu.Unlock()
	}
	defer atomic.AddInt32(&r.active, -1)

	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.patches = append(r.patches, p)
	return r.fail
}

func (r *recordingSaver) calls() []Patch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Patch(nil), r.patches...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func newAutosaver(saver *recordingSaver, delay time.Duration, statuses chan Status) *Autosaver {
	cfg := AutosaveConfig{Delay: delay, SavedHold: 50 * time.Millisecond, ErrorHold: 50 * time.Millisecond}
	if statuses != nil {
		cfg.OnStatus = func(s Status) { statuses <- s }
	}
	return NewAutosaver(Defaults("Siti", "Andi"), saver.save, cfg, testutil.Logger())
}

func TestAutosaver_CoalescesEdits(t *testing.T) {
	saver := &recordingSaver{}
	a := newAutosaver(saver, 40*time.Millisecond, nil)

	for _, v := range []string{"M", "Ma", "Mas", "Masjid"} {
		if err := a.Edit("akad_venue_name", v); err != nil {
			t.Fatalf("Edit: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := a.Edit("resepsi_time", "11:00"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	waitFor(t, func() bool { return len(saver.calls()) == 1 })
	time.Sleep(80 * time.Millisecond)

	calls := saver.calls()
	if len(calls) != 1 {
		t.Fatalf("expected one save, got %d", len(calls))
	}
	if calls[0]["akad_venue_name"] != "Masjid" || calls[0]["resepsi_time"] != "11:00" || len(calls[0]) != 2 {
		t.Errorf("unexpected patch %v", calls[0])
	}
}

func TestAutosaver_SaveWaitsForQuietPeriod(t *testing.T) {
	saver := &recordingSaver{}
	delay := 60 * time.Millisecond
	a := newAutosaver(saver, delay, nil)

	start := time.Now()
	_ = a.Edit("bride_name", "S")
	time.Sleep(30 * time.Millisecond)
	last := time.Now()
	_ = a.Edit("bride_name", "Siti")

	waitFor(t, func() bool { return len(saver.calls()) == 1 })
	if elapsed := time.Since(last); elapsed < delay {
		t.Errorf("save ran %v after the last edit, want at least %v", elapsed, delay)
	}
	if time.Since(start) < 30*time.Millisecond+delay {
		t.Errorf("save was not rescheduled by the second edit")
	}
}

func TestAutosaver_StatusLifecycle(t *testing.T) {
	saver := &recordingSaver{}
	statuses := make(chan Status, 16)
	a := newAutosaver(saver, 10*time.Millisecond, statuses)

	_ = a.Edit("groom_name", "Andi")

	want := []Status{StatusSaving, StatusSaved, StatusIdle}
	for _, w := range want {
		select {
		case got := <-statuses:
			if got != w {
				t.Fatalf("status = %q, want %q", got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}

func TestAutosaver_ErrorKeepsChangesForRetry(t *testing.T) {
	saver := &recordingSaver{fail: errors.New("connection refused")}
	statuses := make(chan Status, 16)
	a := newAutosaver(saver, time.Hour, statuses)

	_ = a.Edit("bride_parents", "Bapak Ahmad")
	if err := a.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	if a.Status() != StatusError {
		t.Errorf("status = %q, want error", a.Status())
	}
	if a.LastError() == nil {
		t.Error("expected LastError to be set")
	}
	if a.Pending()["bride_parents"] != "Bapak Ahmad" {
		t.Errorf("failed change was dropped: %v", a.Pending())
	}
	if a.Snapshot().BrideParents != "Bapak Ahmad" {
		t.Errorf("local copy lost the edit")
	}

	saver.mu.Lock()
	saver.fail = nil
	saver.mu.Unlock()

	if err := a.Flush(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(a.Pending()) != 0 {
		t.Errorf("pending not cleared: %v", a.Pending())
	}
	if a.LastError() != nil {
		t.Errorf("LastError not cleared")
	}
	calls := saver.calls()
	if len(calls) != 2 || calls[1]["bride_parents"] != "Bapak Ahmad" {
		t.Errorf("unexpected saves %v", calls)
	}
}

func TestAutosaver_NewerEditWinsOverFailedValue(t *testing.T) {
	saver := &recordingSaver{fail: errors.New("boom"), block: make(chan struct{})}
	a := newAutosaver(saver, time.Hour, nil)

	_ = a.Edit("akad_date", "2026-12-01")
	done := make(chan error, 1)
	go func() { done <- a.Flush(context.Background()) }()

	waitFor(t, func() bool { return a.Status() == StatusSaving })
	_ = a.Edit("akad_date", "2026-12-02")
	close(saver.block)
	<-done

	if got := a.Pending()["akad_date"]; got != "2026-12-02" {
		t.Errorf("pending akad_date = %q, want the newer edit", got)
	}
}

func TestAutosaver_EditDuringSaveDoesNotOverlap(t *testing.T) {
	saver := &recordingSaver{block: make(chan struct{})}
	a := newAutosaver(saver, 10*time.Millisecond, nil)

	_ = a.Edit("groom_full_name", "Andi Wijaya")
	waitFor(t, func() bool { return a.Status() == StatusSaving })

	_ = a.Edit("groom_initial", "AW")
	time.Sleep(40 * time.Millisecond)
	close(saver.block)

	waitFor(t, func() bool { return len(saver.calls()) == 2 })
	saver.mu.Lock()
	overlapped := saver.overlap
	saver.mu.Unlock()
	if overlapped {
		t.Error("saves overlapped")
	}
	calls := saver.calls()
	if calls[1]["groom_initial"] != "AW" || len(calls[1]) != 1 {
		t.Errorf("second save = %v", calls[1])
	}
}

func TestAutosaver_RejectsUnknownField(t *testing.T) {
	saver := &recordingSaver{}
	a := newAutosaver(saver, 10*time.Millisecond, nil)

	if err := a.Edit("dress_code", "batik"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if len(a.Pending()) != 0 {
		t.Errorf("invalid edit was queued")
	}
}

func TestAutosaver_CloseFlushes(t *testing.T) {
	saver := &recordingSaver{}
	a := newAutosaver(saver, time.Hour, nil)

	_ = a.Edit("resepsi_venue_name", "Gedung Serbaguna")
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(saver.calls()) != 1 {
		t.Fatalf("expected pending edit to be saved on close")
	}
	if err := a.Edit("bride_name", "x"); !errors.Is(err, ErrAutosaverClosed) {
		t.Errorf("expected ErrAutosaverClosed, got %v", err)
	}
}

func TestAutosaver_RebaseKeepsUnsavedEdits(t *testing.T) {
	saver := &recordingSaver{}
	a := newAutosaver(saver, time.Hour, nil)
	defer a.Close(context.Background())

	if err := a.Edit("resepsi_venue_name", "Gedung"); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	stored := Defaults("Siti", "Andi")
	stored.Akad.VenueName = "Masjid Agung"
	stored.Resepsi.VenueName = "Aula Lama"
	a.Rebase(stored)

	got := a.Snapshot()
	if got.Akad.VenueName != "Masjid Agung" {
		t.Errorf("akad venue = %q, want the stored value", got.Akad.VenueName)
	}
	if got.Resepsi.VenueName != "Gedung" {
		t.Errorf("resepsi venue = %q, want the unsaved edit", got.Resepsi.VenueName)
	}
	if p := a.Pending(); p["resepsi_venue_name"] != "Gedung" || len(p) != 1 {
		t.Errorf("pending = %v", p)
	}
}
