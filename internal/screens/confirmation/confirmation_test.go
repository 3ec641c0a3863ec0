package confirmation

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/prodiplan/essaygrader/internal/router"
	"github.com/prodiplan/essaygrader/internal/screen"
)

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                          { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                   { return "history" }
func (s *stubScreen) Title() string                          { return "History" }

func testSummary() Summary {
	return Summary{
		AttemptID:   "a1",
		ReceiptID:   "sub-123",
		TargetMajor: "Kedokteran",
		Answered:    5,
		Total:       5,
		Elapsed:     12*time.Minute + 5*time.Second,
	}
}

func TestConfirmation_View(t *testing.T) {
	c := New(testSummary(), nil, nil)
	view := c.View(100, 40)

	for _, want := range []string{AnalysisETA, "5 dari 5", "12 menit 05 detik", "sub-123", "Perhitungan Skor"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
	if strings.Contains(view, "otomatis") {
		t.Error("manual submission must not mention auto-submit")
	}
}

func TestConfirmation_AutoSubmitNotice(t *testing.T) {
	s := testSummary()
	s.AutoSubmit = true
	s.Answered = 3
	if !strings.Contains(New(s, nil, nil).View(100, 40), "otomatis") {
		t.Error("expected auto-submit notice")
	}
}

func TestConfirmation_HistoryReplaces(t *testing.T) {
	calls := 0
	c := New(testSummary(), func() screen.Screen { calls++; return &stubScreen{} }, nil)

	_, cmd := c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected command")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
	}
	if calls != 1 {
		t.Errorf("expected history factory once, got %d", calls)
	}
}

func TestConfirmation_DashboardPops(t *testing.T) {
	c := New(testSummary(), func() screen.Screen { return &stubScreen{} }, nil)

	c.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	_, cmd := c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatalf("expected PopScreenMsg, got %T", cmd())
	}
}

func TestConfirmation_ResultButton(t *testing.T) {
	var opened string
	result := func(id string) screen.Screen { opened = id; return &stubScreen{} }
	history := func() screen.Screen { return &stubScreen{} }

	tests := []struct {
		name     string
		summary  Summary
		wantView bool
	}{
		{"with attempt", testSummary(), true},
		{"without attempt", Summary{Answered: 1, Total: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened = ""
			c := New(tt.summary, history, result)
			if got := strings.Contains(c.View(100, 40), "Lihat Hasil"); got != tt.wantView {
				t.Fatalf("result button shown = %v, want %v", got, tt.wantView)
			}

			_, cmd := c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
			msg, ok := cmd().(router.ReplaceScreenMsg)
			if !ok {
				t.Fatalf("expected ReplaceScreenMsg, got %T", cmd())
			}
			if tt.wantView && opened != "a1" {
				t.Errorf("expected result for a1, got %q", opened)
			}
			if !tt.wantView && opened != "" {
				t.Error("expected history, not result, as the first button")
			}
			if msg.Screen == nil {
				t.Error("expected a screen to replace with")
			}
		})
	}
}
