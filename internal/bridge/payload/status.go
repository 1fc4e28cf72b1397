package payload

// Status is the vehicle-wide status tag.
type Status string

const (
	StatusPoweredOff Status = "Powered Off"
	StatusStarted    Status = "Started"
	StatusIdle       Status = "Idle"
	StatusDriving    Status = "Driving"
	StatusUnknown    Status = "Unknown"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusStarted, StatusIdle, StatusDriving, StatusPoweredOff, StatusUnknown}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
