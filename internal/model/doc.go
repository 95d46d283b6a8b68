// Package model defines the core data structures used throughout
// the data-displayer application.
//
// # Action
//
// Action identifies one of the three user-triggered units of work:
//
//	model.ActionJSON          // GET /data, saved as data.json
//	model.ActionXLSX          // GET /data/xlsx, saved as data.xlsx
//	model.ActionVisualisation // GET /data_visualisation, displayed inline
//
// # Status
//
// Every action tracks its own Status instead of sharing one loading flag:
//
//	Idle → Pending → Succeeded
//	             ↘ Failed
//
// A Pending action refuses a second start until it settles.
//
// # ActionState
//
// ActionState is a snapshot of one action: its Status, the FailureKind and
// error of the last failed run, and timestamps of the last run.
package model
