package selectui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/codex_profile_switcher/internal/profile"
)

var testCandidates = []profile.Candidate{
	{ID: "alice@x.com-plus", Display: "[PLUS] alice@x.com"},
	{ID: "bob@x.com-pro", Display: "[PRO] bob@x.com"},
	{ID: "carol@x.com-free", Display: "[FREE] carol@x.com"},
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func drive(t *testing.T, model tea.Model, msgs ...tea.Msg) tea.Model {
	t.Helper()
	for _, msg := range msgs {
		model, _ = model.Update(msg)
	}
	return model
}

// scripted builds a selector whose prompts replay the given key presses.
func scripted(msgs ...tea.Msg) *Selector {
	return &Selector{
		styles: PlainStyles(),
		isTTY:  func(int) bool { return true },
		run: func(model tea.Model) (tea.Model, error) {
			for _, msg := range msgs {
				model, _ = model.Update(msg)
			}
			return model, nil
		},
	}
}

func TestPickModelMovesAndSelects(t *testing.T) {
	model := drive(t, newPickModel("t", testCandidates, false, PlainStyles()),
		keyRune('j'), keyRune('j'), keyRune('k'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	selected, err := model.(pickModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(selected) != 1 || selected[0].ID != "bob@x.com-pro" {
		t.Fatalf("selected %v", selected)
	}
}

func TestPickModelCursorStaysInBounds(t *testing.T) {
	model := drive(t, newPickModel("t", testCandidates, false, PlainStyles()),
		keyRune('k'), keyRune('j'), keyRune('j'), keyRune('j'), keyRune('j'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	selected, err := model.(pickModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if selected[0].ID != "carol@x.com-free" {
		t.Fatalf("selected %v", selected)
	}
}

func TestPickModelEscapeCancels(t *testing.T) {
	model := drive(t, newPickModel("t", testCandidates, false, PlainStyles()),
		tea.KeyMsg{Type: tea.KeyEsc},
	)
	if _, err := model.(pickModel).result(); !errors.Is(err, profile.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestPickModelMultiToggle(t *testing.T) {
	model := drive(t, newPickModel("t", testCandidates, true, PlainStyles()),
		tea.KeyMsg{Type: tea.KeySpace},
		keyRune('j'), keyRune('j'),
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	selected, err := model.(pickModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(selected) != 2 || selected[0].ID != "alice@x.com-plus" || selected[1].ID != "carol@x.com-free" {
		t.Fatalf("selected %v", selected)
	}
}

func TestPickModelToggleAll(t *testing.T) {
	model := drive(t, newPickModel("t", testCandidates, true, PlainStyles()),
		keyRune('a'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	selected, err := model.(pickModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(selected) != len(testCandidates) {
		t.Fatalf("expected all selected, got %v", selected)
	}

	// A second 'a' clears the selection again.
	model = drive(t, newPickModel("t", testCandidates, true, PlainStyles()),
		keyRune('a'), keyRune('a'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	selected, err = model.(pickModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(selected) != 0 {
		t.Fatalf("expected empty selection, got %v", selected)
	}
}

func TestPickModelSingleIgnoresToggle(t *testing.T) {
	model := drive(t, newPickModel("t", testCandidates, false, PlainStyles()),
		tea.KeyMsg{Type: tea.KeySpace},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	selected, err := model.(pickModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if len(selected) != 1 || selected[0].ID != "alice@x.com-plus" {
		t.Fatalf("selected %v", selected)
	}
}

func TestConfirmModelDefaultsToNo(t *testing.T) {
	model := drive(t, newConfirmModel("Delete?", PlainStyles()),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	confirmed, err := model.(confirmModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if confirmed {
		t.Fatal("expected default no")
	}
}

func TestConfirmModelYesKey(t *testing.T) {
	model := drive(t, newConfirmModel("Delete?", PlainStyles()), keyRune('y'))
	confirmed, err := model.(confirmModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if !confirmed {
		t.Fatal("expected yes")
	}
}

func TestConfirmModelArrowThenEnter(t *testing.T) {
	model := drive(t, newConfirmModel("Delete?", PlainStyles()),
		tea.KeyMsg{Type: tea.KeyLeft},
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	confirmed, err := model.(confirmModel).result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if !confirmed {
		t.Fatal("expected yes after toggle")
	}
}

func TestConfirmModelEscapeCancels(t *testing.T) {
	model := drive(t, newConfirmModel("Delete?", PlainStyles()),
		tea.KeyMsg{Type: tea.KeyCtrlC},
	)
	if _, err := model.(confirmModel).result(); !errors.Is(err, profile.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestUnsavedModelChoices(t *testing.T) {
	cases := []struct {
		name string
		msgs []tea.Msg
		want profile.UnsavedChoice
	}{
		{"first option", []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, profile.SaveAndContinue},
		{"second option", []tea.Msg{keyRune('j'), tea.KeyMsg{Type: tea.KeyEnter}}, profile.ContinueWithoutSaving},
		{"third option", []tea.Msg{keyRune('j'), keyRune('j'), tea.KeyMsg{Type: tea.KeyEnter}}, profile.CancelLoad},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := drive(t, newUnsavedModel("reason", PlainStyles()), tc.msgs...)
			choice, err := model.(unsavedModel).result()
			if err != nil {
				t.Fatalf("result: %v", err)
			}
			if choice != tc.want {
				t.Fatalf("choice = %v, want %v", choice, tc.want)
			}
		})
	}
}

func TestUnsavedModelEscapeCancels(t *testing.T) {
	model := drive(t, newUnsavedModel("reason", PlainStyles()), tea.KeyMsg{Type: tea.KeyEsc})
	if _, err := model.(unsavedModel).result(); !errors.Is(err, profile.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestSelectorPickOne(t *testing.T) {
	sel := scripted(keyRune('j'), tea.KeyMsg{Type: tea.KeyEnter})
	candidate, err := sel.PickOne("", testCandidates)
	if err != nil {
		t.Fatalf("PickOne: %v", err)
	}
	if candidate.ID != "bob@x.com-pro" {
		t.Fatalf("candidate %v", candidate)
	}
}

func TestSelectorPickManyCancelled(t *testing.T) {
	sel := scripted(tea.KeyMsg{Type: tea.KeyEsc})
	if _, err := sel.PickMany("", testCandidates); !errors.Is(err, profile.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestSelectorConfirm(t *testing.T) {
	sel := scripted(keyRune('n'))
	confirmed, err := sel.Confirm("sure?")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed {
		t.Fatal("expected no")
	}
}

func TestSelectorInteractive(t *testing.T) {
	sel := scripted()
	if !sel.Interactive() {
		t.Fatal("stubbed TTY check should report interactive")
	}
	sel.isTTY = func(int) bool { return false }
	if sel.Interactive() {
		t.Fatal("expected non-interactive")
	}
}

func TestPickModelViewMarksCursor(t *testing.T) {
	view := newPickModel("Select a profile", testCandidates, false, PlainStyles()).View()
	if want := "❯ [PLUS] alice@x.com"; !strings.Contains(view, want) {
		t.Fatalf("view missing %q:\n%s", want, view)
	}
	if !strings.Contains(view, "Select a profile") {
		t.Fatalf("view missing title:\n%s", view)
	}
}
