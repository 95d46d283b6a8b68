// Package retrieval implements the data retrieval client: the three
// user-triggered actions against the data API and their side effects.
//
// # Manager
//
// The Manager runs each action as one request/response/side-effect unit:
//
//   - DownloadJSON: GET /data, pretty-print, save as data.json
//   - DownloadXLSX: GET /data/xlsx, save the bytes unchanged as data.xlsx
//   - ViewVisualisation: GET /data_visualisation, hold the image for display
//
// # Basic Usage
//
//	manager, err := retrieval.NewManager(settings, func(event retrieval.ProgressEvent) {
//	    fmt.Println(event.Message)
//	}, retrieval.WithNotifier(notifier))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Close()
//
//	err = manager.DownloadJSON(ctx)
//
// # State
//
// Every action has its own Status (Idle, Pending, Failed, Succeeded). Starting
// an action that is already Pending returns ErrActionPending. Loading reports
// whether any action is Pending; user interfaces disable every trigger while
// it is true. A run always leaves Pending, whatever the outcome.
//
// # Failures
//
// Each run is bounded by settings.RequestTimeout. On failure the error is
// logged, the action's state records the FailureKind, and the Notifier
// receives the action's generic failure message. Nothing is retried.
//
// # Visualisation Lifetime
//
// The displayed visualisation is an in-memory blob reference. It is revoked
// before a newer one replaces it and when the Manager is closed.
package retrieval
