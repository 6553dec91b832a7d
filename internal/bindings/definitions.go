package bindings

const (
	ActionNewWindow    ActionID = "new_window"
	ActionCloseWindow  ActionID = "close_window"
	ActionRunRequest   ActionID = "run_request"
	ActionNextWindow   ActionID = "next_window"
	ActionPrevWindow   ActionID = "prev_window"
	ActionNextField    ActionID = "next_field"
	ActionPrevField    ActionID = "prev_field"
	ActionCycleVerb    ActionID = "cycle_verb"
	ActionToggleParams ActionID = "toggle_params_tab"
	ActionCopyResponse ActionID = "copy_response"
	ActionCycleTheme   ActionID = "cycle_theme"
	ActionToggleHelp   ActionID = "toggle_help"
	ActionQuit         ActionID = "quit"
)

type definition struct {
	id          ActionID
	description string
	defaults    []string
	// run and quit must fire on one key press
	singleStep bool
}

var definitions = []definition{
	{id: ActionNewWindow, description: "Open an empty request window", defaults: []string{"ctrl+n", "ctrl+x n"}},
	{id: ActionCloseWindow, description: "Close the active window", defaults: []string{"ctrl+w", "ctrl+x k"}},
	{id: ActionRunRequest, description: "Send the request", defaults: []string{"ctrl+r", "f5"}, singleStep: true},
	{id: ActionNextWindow, description: "Next window", defaults: []string{"alt+right", "ctrl+x o"}},
	{id: ActionPrevWindow, description: "Previous window", defaults: []string{"alt+left"}},
	{id: ActionNextField, description: "Focus next field", defaults: []string{"tab"}},
	{id: ActionPrevField, description: "Focus previous field", defaults: []string{"shift+tab"}},
	{id: ActionCycleVerb, description: "Cycle the HTTP verb", defaults: []string{"alt+v"}},
	{id: ActionToggleParams, description: "Switch between body and headers", defaults: []string{"alt+h"}},
	{id: ActionCopyResponse, description: "Copy the response body", defaults: []string{"alt+c"}},
	{id: ActionCycleTheme, description: "Switch theme and remember it", defaults: []string{"alt+t"}},
	{id: ActionToggleHelp, description: "Toggle help", defaults: []string{"f1"}},
	{id: ActionQuit, description: "Close every window and quit", defaults: []string{"ctrl+q", "ctrl+c"}, singleStep: true},
}

var definitionLookup = func() map[ActionID]definition {
	out := make(map[ActionID]definition, len(definitions))
	for _, def := range definitions {
		out[def.id] = def
	}
	return out
}()

// Describe returns the help text for action.
func Describe(action ActionID) string {
	return definitionLookup[action].description
}
