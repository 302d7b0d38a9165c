// Package storage provides JSON-based persistence for schedule snapshots.
//
// Each property gets its own snapshot file (schedule_<property>.json) holding the
// last successfully scraped schedule and a capped log of detected date changes.
// The snapshot lets a restarted service serve stale data before its first refresh.
// The default storage location is ~/.local/share/him-waste/.
package storage
