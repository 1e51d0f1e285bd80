package enums

// NotificationType tags the system event that produced a feed entry.
type NotificationType string

const (
	NotificationTypeOrder   NotificationType = "order"
	NotificationTypeSignup  NotificationType = "signup"
	NotificationTypeContact NotificationType = "contact"
	NotificationTypeCareers NotificationType = "careers"
)

func (t NotificationType) String() string {
	return string(t)
}
