// Package shipment holds the records passed between the scraper, the tracker
// and the status store.
package shipment

// TrackingNumber is the shipment this tracker watches.
const TrackingNumber = "CH01CH7546"

// StatusRecord is a single point-in-time shipment state as parsed from the
// tracking page.
type StatusRecord struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Location   string `json:"location"`
	Status     string `json:"status"`
	FullStatus string `json:"full_status"`
	// Timestamp is when the record was parsed, in RFC 3339.
	Timestamp string `json:"timestamp"`
}

// PersistedStatus is the last status record that triggered a notification.
type PersistedStatus struct {
	LastLocation string        `json:"last_location"`
	LastStatus   string        `json:"last_status"`
	LastCheck    string        `json:"last_check"`
	FullData     *StatusRecord `json:"full_data,omitempty"`
}

// Persist turns a notified record into the state that is written to disk.
func Persist(record StatusRecord) PersistedStatus {
	return PersistedStatus{
		LastLocation: record.Location,
		LastStatus:   record.Status,
		LastCheck:    record.Timestamp,
		FullData:     &record,
	}
}
