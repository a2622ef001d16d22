package store

import "time"

// CommandStatus is the storage representation of one command's state.
type CommandStatus struct {
	// ID is the command identifier (e.g. "STRATCOM").
	ID string `json:"id"`

	// Name is the display name, e.g. "DEFCON STRATCOM".
	Name string `json:"name"`

	// Icon is a presentation hint for dashboards.
	Icon string `json:"icon"`

	// State is "raised" or "normal".
	State string `json:"state"`

	// URL is the command's alert page.
	URL string `json:"url"`

	// Changed is true only on the cycle that observed a transition.
	Changed bool `json:"changed"`

	// FlashUntil is the end of the flash window, nil when none is open.
	FlashUntil *time.Time `json:"flash_until"`

	// LastUpdated is the snapshot timestamp this state belongs to.
	LastUpdated time.Time `json:"last_updated"`
}

// Snapshot is the storage representation of a published board snapshot,
// shaped for JSON serialization by the REST API and SSE.
type Snapshot struct {
	// Updated is when the snapshot was produced.
	Updated time.Time `json:"updated"`

	// DefconLevel is the extracted level, nil when the page had none.
	DefconLevel *int `json:"defcon_level"`

	// Commands lists every configured command in configuration order.
	Commands []CommandStatus `json:"commands"`
}

// Health describes refresh attempts independently of the last good snapshot.
type Health struct {
	// Ready is true once a snapshot has been published.
	Ready bool `json:"ready"`

	// LastAttemptAt is when the most recent refresh finished, successful or not.
	LastAttemptAt time.Time `json:"last_attempt_at"`

	// LastSuccessAt is the Updated time of the last published snapshot.
	LastSuccessAt time.Time `json:"last_success_at"`

	// LastError is the message of the most recent failure, cleared on success.
	LastError *string `json:"last_error"`

	// ConsecutiveFailures counts failed refreshes since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`
}

// Update is what subscribers receive whenever the snapshot or health changes.
type Update struct {
	Snapshot *Snapshot `json:"snapshot"`
	Health   Health    `json:"health"`
}

// Store defines the interface for holding the latest snapshot and
// subscribing to changes.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// Publish replaces the stored snapshot wholesale and marks the store ready.
	Publish(snapshot Snapshot)

	// RecordFailure notes a failed refresh. The stored snapshot is kept.
	RecordFailure(message string, at time.Time)

	// Latest returns the stored snapshot (nil before the first Publish)
	// together with the current health.
	Latest() (*Snapshot, Health)

	// Subscribe returns a channel that receives updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Update

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Update)
}
