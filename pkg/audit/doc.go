// Package audit records configuration resolutions as an audit trail.
//
// # Overview
//
// Every single-key resolution can be captured as an Event: which key was
// asked for, in which environment, which tier answered, and the value with
// masking already applied according to the key's sensitivity
// classification. Credential values never reach the recorder in clear
// text; masking happens at the observation site, before the event is
// enqueued.
//
// Recording is asynchronous. Events are buffered on a channel and written
// by a background worker, so resolution latency does not depend on the
// audit backend. A full buffer drops events rather than blocking callers.
//
// # Usage
//
//	st, _ := storage.NewSQLiteStorage(nil)
//	rec := audit.NewRecorder(st, nil)
//	defer rec.Close()
//
//	res := resolver.New(store, env, &resolver.Config{
//		Observers: []resolver.Observer{audit.NewResolutionObserver(rec)},
//	})
//
// Pass a nil storage to log events without persisting them.
package audit
