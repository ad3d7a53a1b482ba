package host

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fullResolver() func(name string) interface{} {
	return func(name string) interface{} {
		switch name {
		case "ShowConsoleMsg":
			return func(msg string) {}
		case "midi_reinit":
			return func() {}
		case "midi_init":
			return func(input, output int) {}
		case "GetNumMIDIInputs", "GetNumMIDIOutputs":
			return func() int { return 0 }
		case "GetMIDIInputName", "GetMIDIOutputName":
			return func(index int) string { return "" }
		case "plugin_register_timer", "plugin_unregister_timer":
			return func(fn func()) {}
		case "register_action":
			return func(name, desc string) int { return 1 }
		case "register_action_handler":
			return func(fn func(int)) {}
		}
		return nil
	}
}

func TestResolveFullHost(t *testing.T) {
	api, err := Resolve(&Record{Version: CompatibleVersion, GetFunc: fullResolver()})
	assert.Equal(t, nil, err)

	assert.True(t, api.HasFineReinit())
	assert.True(t, api.CanEnumerate())
	assert.True(t, api.HasTimer())
	assert.NotNil(t, api.RegisterAction)
	assert.NotNil(t, api.RegisterActionHandler)
}

func TestResolveMissingRequiredNamesTheHook(t *testing.T) {
	full := fullResolver()
	rec := &Record{
		Version: CompatibleVersion,
		GetFunc: func(name string) interface{} {
			if name == "midi_reinit" {
				return nil
			}
			return full(name)
		},
	}

	api, err := Resolve(rec)
	assert.True(t, api == nil)
	assert.NotEqual(t, nil, err)
	assert.True(t, strings.Contains(err.Error(), "midi_reinit"))
}

func TestResolveMistypedRequiredFails(t *testing.T) {
	full := fullResolver()
	rec := &Record{
		Version: CompatibleVersion,
		GetFunc: func(name string) interface{} {
			if name == "midi_reinit" {
				return func(wrong int) {}
			}
			return full(name)
		},
	}

	_, err := Resolve(rec)
	assert.NotEqual(t, nil, err)
}

func TestResolveOptionalAbsenceIsFine(t *testing.T) {
	rec := &Record{
		Version: CompatibleVersion,
		GetFunc: func(name string) interface{} {
			switch name {
			case "ShowConsoleMsg":
				return func(msg string) {}
			case "midi_reinit":
				return func() {}
			}
			return nil
		},
	}

	api, err := Resolve(rec)
	assert.Equal(t, nil, err)
	assert.False(t, api.HasFineReinit())
	assert.False(t, api.CanEnumerate())
	assert.False(t, api.HasTimer())
}

func TestResolveNilRecord(t *testing.T) {
	_, err := Resolve(nil)
	assert.NotEqual(t, nil, err)

	_, err = Resolve(&Record{Version: CompatibleVersion})
	assert.NotEqual(t, nil, err)
}
