package tracker

import (
	"fmt"
	"strings"
	"time"

	"shiptracker/internal/shipment"
)

const footer = "---\nAutomated notification from Raspberry Pi Shipment Tracker\n"

// UpdateMessage is the email sent when a status change (or the first status)
// is detected.
func UpdateMessage(record shipment.StatusRecord, checkedAt time.Time) (subject, body string) {
	subject = fmt.Sprintf("🚚 Shipment Update - %s", record.Location)
	body = fmt.Sprintf(`Vehicle Shipment Update - %s

📍 Current Location: %s
📋 Status: %s
📅 Date: %s
🕐 Time: %s

Full Status: %s

Checked at: %s

%s`,
		shipment.TrackingNumber,
		record.Location,
		record.Status,
		record.Date,
		record.Time,
		record.FullStatus,
		checkedAt.Format(time.DateTime),
		footer,
	)
	return subject, body
}

// SystemReport is the host telemetry included in the reboot report.
type SystemReport struct {
	Uptime    string
	Address   string
	DiskUsage string
}

// RebootMessage is the unconditional report sent once after boot. current is
// nil when the fresh fetch failed, in which case last is used if it holds a
// location.
func RebootMessage(
	sys SystemReport,
	current *shipment.StatusRecord,
	last shipment.PersistedStatus,
	now time.Time,
) (subject, body string) {
	subject = "🔄 Raspberry Pi Reboot - Shipment Tracker Online"

	var b strings.Builder
	fmt.Fprintf(&b, `Raspberry Pi Shipment Tracker Status Report
==========================================

🔄 SYSTEM REBOOT DETECTED
Timestamp: %s
Uptime: %s
IP Address: %s
Disk Usage: %s

🚚 CURRENT SHIPMENT STATUS (%s)
`,
		now.Format(time.DateTime),
		sys.Uptime,
		sys.Address,
		sys.DiskUsage,
		shipment.TrackingNumber,
	)

	switch {
	case current != nil:
		fmt.Fprintf(&b, `
📍 Current Location: %s
📋 Status: %s
📅 Last Update: %s %s
🔄 Full Status: %s
`,
			current.Location,
			current.Status,
			current.Date, current.Time,
			current.FullStatus,
		)
	case last.LastLocation != "":
		lastCheck := last.LastCheck
		if lastCheck == "" {
			lastCheck = "Unknown"
		}
		fmt.Fprintf(&b, `
📍 Last Known Location: %s
📋 Last Known Status: %s
📅 Last Check: %s
⚠️  Current data fetch failed - using last known status
`,
			last.LastLocation,
			last.LastStatus,
			lastCheck,
		)
	default:
		b.WriteString(`
⚠️  No shipment data available yet
This might be the first run after setup
`)
	}

	b.WriteString(`

⚙️  TRACKER SERVICE STATUS
✅ Shipment tracker is now running
✅ Email notifications enabled

🔍 MONITORING COMMANDS:
- Check status: shiptracker status
- View logs: tail -f logs/tracker.log
- Manual check: shiptracker check

`)
	b.WriteString(footer)
	return subject, b.String()
}

// FailureMessage is sent when a check cycle crashes unexpectedly.
func FailureMessage(cause error, now time.Time) (subject, body string) {
	subject = "❌ Shipment Tracker Error"
	body = fmt.Sprintf(`Shipment tracker encountered an error:

Error: %s
Time: %s

Please check the Raspberry Pi logs.
`,
		cause,
		now.Format(time.DateTime),
	)
	return subject, body
}
