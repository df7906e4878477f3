package editor

import (
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/sinapsi/engine/config"
	"github.com/spaghettifunk/sinapsi/engine/core"
)

func TestGraphOptionsDefaults(t *testing.T) {
	options := NewGraphOptions()
	if !options.GraphAnimation() {
		t.Error("GraphAnimation should default to true")
	}
	if options.ShowFPS() {
		t.Error("ShowFPS should default to false")
	}
}

// optionListener records every option change notification it hears.
type optionListener struct {
	changed []string
}

func (l *optionListener) onEvent(context core.EventContext) {
	event, ok := context.Data.(*core.OptionChangedEvent)
	if !ok {
		return
	}
	l.changed = append(l.changed, event.Option)
}

func listenForOptionChanges(t *testing.T) *optionListener {
	t.Helper()

	if !core.EventSystemInitialize() {
		t.Fatal("event system failed to initialize")
	}
	t.Cleanup(func() { core.EventSystemShutdown() })

	listener := &optionListener{}
	handle := core.EventRegister(core.EVENT_CODE_OPTION_CHANGED, listener.onEvent)
	if handle == core.InvalidEventHandle {
		t.Fatal("failed to register option listener")
	}
	return listener
}

func TestGraphOptionsNotifyOnlyOnChange(t *testing.T) {
	listener := listenForOptionChanges(t)
	options := NewGraphOptions()

	options.SetShowFPS(true)
	if got := len(listener.changed); got != 1 {
		t.Fatalf("notifications after first change = %d, want 1", got)
	}
	if listener.changed[0] != "showFPS" {
		t.Fatalf("notification named %q, want %q", listener.changed[0], "showFPS")
	}

	// Same value again, no notification.
	options.SetShowFPS(true)
	if got := len(listener.changed); got != 1 {
		t.Fatalf("notifications after repeated set = %d, want 1", got)
	}

	// Already true by default, no notification.
	options.SetGraphAnimation(true)
	if got := len(listener.changed); got != 1 {
		t.Fatalf("notifications after default re-set = %d, want 1", got)
	}

	options.SetGraphAnimation(false)
	if got := len(listener.changed); got != 2 {
		t.Fatalf("notifications after second change = %d, want 2", got)
	}
	if listener.changed[1] != "useGraphAnimation" {
		t.Fatalf("notification named %q, want %q", listener.changed[1], "useGraphAnimation")
	}
}

func TestGraphOptionsCopyFromNotifiesEffectiveChanges(t *testing.T) {
	listener := listenForOptionChanges(t)

	source := NewGraphOptions()
	source.graphAnimation = false
	source.showFPS = false

	target := NewGraphOptions()
	target.CopyFrom(source)

	// Only graphAnimation differed from the defaults.
	if got := len(listener.changed); got != 1 {
		t.Fatalf("notifications = %d, want 1", got)
	}
	if listener.changed[0] != "useGraphAnimation" {
		t.Fatalf("notification named %q, want %q", listener.changed[0], "useGraphAnimation")
	}
	if target.GraphAnimation() {
		t.Error("CopyFrom did not carry graphAnimation over")
	}
}

func TestGraphOptionsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	settings, err := config.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	options := NewGraphOptions()
	options.SetGraphAnimation(false)
	options.SetShowFPS(true)
	if err := options.Save(settings); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reopened, err := config.Open(path)
	if err != nil {
		t.Fatalf("re-Open: %v", err)
	}
	loaded := LoadGraphOptions(reopened)
	if loaded.GraphAnimation() {
		t.Error("GraphAnimation did not survive the round trip")
	}
	if !loaded.ShowFPS() {
		t.Error("ShowFPS did not survive the round trip")
	}
}

func TestLoadGraphOptionsMissingKeysKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	settings, err := config.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Only one of the two keys present.
	settings.Set("showFPS", true)

	loaded := LoadGraphOptions(settings)
	if !loaded.GraphAnimation() {
		t.Error("missing useGraphAnimation key should keep the default true")
	}
	if !loaded.ShowFPS() {
		t.Error("present showFPS key should be honored")
	}
}

func TestGraphOptionsProperties(t *testing.T) {
	options := NewGraphOptions()
	properties := options.Properties()
	if len(properties) != 2 {
		t.Fatalf("property count = %d, want 2", len(properties))
	}

	byName := make(map[string]PropertyDescriptor, len(properties))
	for _, property := range properties {
		byName[property.Name] = property
	}

	animation, found := byName["useGraphAnimation"]
	if !found {
		t.Fatal("no useGraphAnimation property")
	}
	if animation.Label != "Graph Animation" {
		t.Errorf("label = %q, want %q", animation.Label, "Graph Animation")
	}
	if !animation.Get() {
		t.Error("descriptor getter disagrees with the default")
	}

	// Mutating through the descriptor reaches the owning options object.
	animation.Set(false)
	if options.GraphAnimation() {
		t.Error("descriptor setter did not reach the options object")
	}

	fps, found := byName["showFPS"]
	if !found {
		t.Fatal("no showFPS property")
	}
	if fps.Label != "Show FPS" {
		t.Errorf("label = %q, want %q", fps.Label, "Show FPS")
	}
	if fps.Get() {
		t.Error("descriptor getter disagrees with the default")
	}
}
