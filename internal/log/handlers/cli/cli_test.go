package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"
	"github.com/fatih/color"
)

func TestEscapeAwareRuneCountInString(t *testing.T) {
	var bold = color.New(color.Bold)
	var myColor = color.New(color.FgBlue)

	s := myColor.Sprintf("•ABC%s%s", bold.Sprintf("DEF"), "\x1B[00;38;5;244m\x1B[m\x1B[00;38;5;33mGHI\x1B[0m")
	count := EscapeAwareRuneCountInString(s)
	if count != 10 {
		t.Errorf("Count was incorrect, got: %d, want: %d.", count, 10)
	}
}

func TestRightPad(t *testing.T) {
	if got := RightPad("Москва", 8); got != "Москва  " {
		t.Fatalf("unexpected %q", got)
	}
	if got := RightPad("Moscow", 2); got != "Moscow" {
		t.Fatalf("unexpected %q", got)
	}
}

func newEntry(level log.Level, message string, fields log.Fields) *log.Entry {
	return &log.Entry{Level: level, Message: message, Fields: fields}
}

func TestHandleLog(t *testing.T) {
	color.NoColor = true

	t.Run("with a plain entry", func(t *testing.T) {
		w := &bytes.Buffer{}
		h := New(w)
		err := h.HandleLog(newEntry(log.WarnLevel, "cannot save summary", log.Fields{"path": "x"}))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(w.String(), "cannot save summary") || !strings.Contains(w.String(), "path=x") {
			t.Fatalf("unexpected output %q", w.String())
		}
	})

	t.Run("with a table", func(t *testing.T) {
		w := &bytes.Buffer{}
		h := New(w)
		err := h.HandleLog(newEntry(log.InfoLevel, "ipgeobase", log.Fields{
			"type":     "table",
			"accepted": 2,
			"read":     3,
		}))
		if err != nil {
			t.Fatal(err)
		}
		expect := strings.Join([]string{
			"┏━━━━━━━━━━━━━┓",
			"┃ ipgeobase   ┃",
			"┃ accepted: 2 ┃",
			"┃ read: 3     ┃",
			"┗━━━━━━━━━━━━━┛",
			"",
		}, "\n")
		if w.String() != expect {
			t.Fatalf("unexpected output\n%s", w.String())
		}
	})

	t.Run("with a section title", func(t *testing.T) {
		w := &bytes.Buffer{}
		h := New(w)
		err := h.HandleLog(newEntry(log.InfoLevel, "Import", log.Fields{
			"type":  "section_title",
			"title": "Import",
		}))
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(w.String(), "\n")
		if len(lines) != 4 || lines[1] != "┃ "+RightPad("Import", 24)+" ┃" {
			t.Fatalf("unexpected output\n%s", w.String())
		}
	})

	t.Run("with an unknown type", func(t *testing.T) {
		w := &bytes.Buffer{}
		h := New(w)
		if err := h.HandleLog(newEntry(log.InfoLevel, "hello", log.Fields{"type": "foo"})); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(w.String(), "hello") || strings.Contains(w.String(), "type=") {
			t.Fatalf("unexpected output %q", w.String())
		}
	})
}
