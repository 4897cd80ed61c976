package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/sheets"
)

type fakeTasks struct {
	current    []sheets.TaskRecord
	currentErr error
	weekly     sheets.WeeklyTasks
	weeklyErr  error
	changes    []sheets.StatusChange
	changesErr error
}

func (f *fakeTasks) CurrentTasks(ctx context.Context) ([]sheets.TaskRecord, error) {
	return f.current, f.currentErr
}

func (f *fakeTasks) NewTasksLastWeek(ctx context.Context) (sheets.WeeklyTasks, error) {
	return f.weekly, f.weeklyErr
}

func (f *fakeTasks) StatusChanges(ctx context.Context, daysBack int) ([]sheets.StatusChange, error) {
	return f.changes, f.changesErr
}

func TestParseQuery(t *testing.T) {
	cases := []struct {
		in   string
		want Query
	}{
		{"CoreTax - BPHTB", Query{App: "CoreTax", Module: "BPHTB"}},
		{"CoreTax-BPHTB", Query{App: "CoreTax", Module: "BPHTB"}},
		{"CoreTax – BPHTB", Query{App: "CoreTax", Module: "BPHTB"}},
		// The first dash splits, later dashes belong to the module.
		{"ERET - e-Billing", Query{App: "ERET", Module: "e-Billing"}},
		{"detail CoreTax - BPHTB", Query{App: "CoreTax", Module: "BPHTB"}},
		{"@111222333 detail CoreTax", Query{App: "CoreTax"}},
		{"rincian ERET", Query{App: "ERET"}},
		{"status CoreTax", Query{App: "CoreTax"}},
		{"daftar Reklame", Query{App: "Reklame"}},
		// A bare name with no lead word is still a lookup.
		{"CoreTax", Query{App: "CoreTax"}},
		{"berapa task minggu ini", Query{App: "berapa task minggu ini"}},
		{"", Query{}},
		{"@111222333", Query{}},
	}

	for _, tc := range cases {
		if got := ParseQuery(tc.in); got != tc.want {
			t.Fatalf("%q: got %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestResolveUsageHintWhenUnparseable(t *testing.T) {
	r := NewQueryResolver(&fakeTasks{}, 10)
	out, err := r.Resolve(context.Background(), "@111222333")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Format pertanyaan") {
		t.Fatalf("expected usage hint, got:\n%s", out)
	}
}

func TestResolveBareAppName(t *testing.T) {
	src := &fakeTasks{current: []sheets.TaskRecord{
		{ID: "3621", App: "CoreTax", Module: "BPHTB", Description: "Perbaikan validasi", PIC: "Zaki", Status: "On Progress"},
	}}
	r := NewQueryResolver(src, 10)

	out, err := r.Resolve(context.Background(), "CoreTax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "[3621]") {
		t.Fatalf("bare app name must list its tasks, got:\n%s", out)
	}

	// A question that matches no app reads as an app name and misses.
	out, err = r.Resolve(context.Background(), "berapa task minggu ini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Tidak ditemukan task untuk *berapa task minggu ini*") {
		t.Fatalf("expected not-found message, got:\n%s", out)
	}
}

func TestResolveNotFound(t *testing.T) {
	src := &fakeTasks{current: []sheets.TaskRecord{{ID: "1", App: "ERET", Module: "Penagihan"}}}
	r := NewQueryResolver(src, 10)

	out, err := r.Resolve(context.Background(), "detail CoreTax - BPHTB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Tidak ditemukan task untuk *CoreTax - BPHTB*") {
		t.Fatalf("expected not-found message, got:\n%s", out)
	}
}

func TestResolveDirectListingAtThreshold(t *testing.T) {
	src := &fakeTasks{}
	for i := 0; i < 10; i++ {
		src.current = append(src.current, sheets.TaskRecord{
			ID: fmt.Sprintf("36%02d", i), App: "CoreTax", Module: "BPHTB",
			Description: "Task", PIC: "Zaki", Status: "On Progress",
		})
	}
	r := NewQueryResolver(src, 10)

	out, err := r.Resolve(context.Background(), "CoreTax - BPHTB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "📋") || !strings.Contains(out, "[3600]") || !strings.Contains(out, "[3609]") {
		t.Fatalf("expected direct listing of all 10 tasks:\n%s", out)
	}
	if !strings.Contains(out, "PIC: Zaki | Status: On Progress") {
		t.Fatalf("missing task meta line:\n%s", out)
	}
}

func TestResolveSummaryAboveThreshold(t *testing.T) {
	src := &fakeTasks{}
	statuses := []string{"Done", "On Progress", "Blocked", "Ready to Test"}
	for i := 0; i < 11; i++ {
		src.current = append(src.current, sheets.TaskRecord{
			ID: fmt.Sprintf("%d", i), App: "CoreTax", Module: "BPHTB",
			Status: statuses[i%len(statuses)],
		})
	}
	r := NewQueryResolver(src, 10)

	out, err := r.Resolve(context.Background(), "CoreTax - BPHTB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Total: 11 task") {
		t.Fatalf("missing total:\n%s", out)
	}
	// Known statuses come in pipeline order, unknown ones after.
	prog := strings.Index(out, "On Progress:")
	done := strings.Index(out, "Done:")
	blocked := strings.Index(out, "Blocked:")
	if prog == -1 || done == -1 || blocked == -1 {
		t.Fatalf("missing status counters:\n%s", out)
	}
	if !(prog < done && done < blocked) {
		t.Fatalf("counter order wrong:\n%s", out)
	}
	if !strings.Contains(out, "Sebutkan modul") {
		t.Fatalf("missing narrowing hint:\n%s", out)
	}
}

func TestResolveExcludesResolvedTasks(t *testing.T) {
	src := &fakeTasks{current: []sheets.TaskRecord{
		{ID: "1", App: "CoreTax", Module: "BPHTB", Status: "Done", Resolved: true},
		{ID: "2", App: "CoreTax", Module: "BPHTB", Status: "On Progress"},
	}}
	r := NewQueryResolver(src, 10)

	out, err := r.Resolve(context.Background(), "CoreTax - BPHTB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "[1]") {
		t.Fatalf("resolved task leaked into listing:\n%s", out)
	}
	if !strings.Contains(out, "Total: 1 task") {
		t.Fatalf("unexpected total:\n%s", out)
	}
}

func TestResolveMatchesCaseInsensitiveSubstring(t *testing.T) {
	src := &fakeTasks{current: []sheets.TaskRecord{
		{ID: "1", App: "CoreTax", Module: "BPHTB Online", Status: "On Progress"},
	}}
	r := NewQueryResolver(src, 10)

	out, err := r.Resolve(context.Background(), "coretax - bphtb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "[1]") {
		t.Fatalf("substring match failed:\n%s", out)
	}
}

func TestResolvePropagatesFetchError(t *testing.T) {
	r := NewQueryResolver(&fakeTasks{currentErr: errors.New("sheet unreachable")}, 10)
	if _, err := r.Resolve(context.Background(), "CoreTax - BPHTB"); err == nil {
		t.Fatalf("expected fetch error")
	}
}
