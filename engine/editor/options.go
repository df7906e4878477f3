package editor

import (
	"github.com/spaghettifunk/sinapsi/engine/config"
	"github.com/spaghettifunk/sinapsi/engine/core"
)

// Settings keys for the graph view options. These are part of the on-disk
// format and must not change.
const (
	graphAnimationOptionName = "useGraphAnimation"
	showFPSOptionName        = "showFPS"
)

/**
 * @brief Preferences of the graph view. Setters report effective changes on
 * the event bus so open views can react without polling.
 */
type GraphOptions struct {
	graphAnimation bool
	showFPS        bool
}

func NewGraphOptions() *GraphOptions {
	return &GraphOptions{
		graphAnimation: true,
		showFPS:        false,
	}
}

func (o *GraphOptions) GraphAnimation() bool {
	return o.graphAnimation
}

func (o *GraphOptions) ShowFPS() bool {
	return o.showFPS
}

// SetGraphAnimation toggles animated node layout. A notification fires only
// when the value actually changes.
func (o *GraphOptions) SetGraphAnimation(enabled bool) {
	if o.graphAnimation == enabled {
		return
	}
	o.graphAnimation = enabled
	notifyOptionChanged(graphAnimationOptionName)
}

// SetShowFPS toggles the FPS readout. A notification fires only when the
// value actually changes.
func (o *GraphOptions) SetShowFPS(enabled bool) {
	if o.showFPS == enabled {
		return
	}
	o.showFPS = enabled
	notifyOptionChanged(showFPSOptionName)
}

// CopyFrom assigns other onto o through the setters, so listeners hear about
// every effective difference.
func (o *GraphOptions) CopyFrom(other *GraphOptions) {
	o.SetGraphAnimation(other.graphAnimation)
	o.SetShowFPS(other.showFPS)
}

// Save writes both options to the settings store under their fixed keys.
func (o *GraphOptions) Save(settings *config.Settings) error {
	settings.Set(graphAnimationOptionName, o.graphAnimation)
	settings.Set(showFPSOptionName, o.showFPS)
	return settings.Save()
}

// LoadGraphOptions builds options from the settings store. A missing key
// keeps its default, and loading never fires change notifications.
func LoadGraphOptions(settings *config.Settings) *GraphOptions {
	options := NewGraphOptions()
	if enabled, found := settings.Bool(graphAnimationOptionName); found {
		options.graphAnimation = enabled
	}
	if enabled, found := settings.Bool(showFPSOptionName); found {
		options.showFPS = enabled
	}
	return options
}

func notifyOptionChanged(name string) {
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_OPTION_CHANGED,
		Data: &core.OptionChangedEvent{Option: name},
	})
}

/**
 * @brief Describes one editable option so a property grid can bind it
 * without knowing the options type.
 */
type PropertyDescriptor struct {
	Name  string
	Label string
	Get   func() bool
	Set   func(bool)
}

// Properties lists the property descriptors of every option, in display order.
func (o *GraphOptions) Properties() []PropertyDescriptor {
	return []PropertyDescriptor{
		{
			Name:  graphAnimationOptionName,
			Label: "Graph Animation",
			Get:   o.GraphAnimation,
			Set:   o.SetGraphAnimation,
		},
		{
			Name:  showFPSOptionName,
			Label: "Show FPS",
			Get:   o.ShowFPS,
			Set:   o.SetShowFPS,
		},
	}
}
