package model

// Action identifies one of the user-triggered request/response/side-effect units.
type Action int

const (
	ActionJSON Action = iota
	ActionXLSX
	ActionVisualisation
)

// Actions lists every action in button order.
var Actions = []Action{ActionJSON, ActionXLSX, ActionVisualisation}

// String returns a short identifier used in logs and on the command line.
func (a Action) String() string {
	switch a {
	case ActionJSON:
		return "json"
	case ActionXLSX:
		return "xlsx"
	case ActionVisualisation:
		return "visualisation"
	}
	return "unknown"
}

// Label returns the button caption for the action.
func (a Action) Label() string {
	switch a {
	case ActionJSON:
		return "Download data as json"
	case ActionXLSX:
		return "Download data as xlsx"
	case ActionVisualisation:
		return "View visualisations"
	}
	return ""
}

// FailureMessage returns the generic message shown to the user when the action fails.
func (a Action) FailureMessage() string {
	switch a {
	case ActionJSON:
		return "Failed to download JSON data"
	case ActionXLSX:
		return "Failed to download XLSX data"
	case ActionVisualisation:
		return "Failed to load visualisations"
	}
	return "Action failed"
}

// ParseAction maps a command line name to an Action.
func ParseAction(name string) (Action, bool) {
	switch name {
	case "json":
		return ActionJSON, true
	case "xlsx":
		return ActionXLSX, true
	case "visualisation", "visualization", "viz":
		return ActionVisualisation, true
	}
	return 0, false
}
