package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeContentApproved    NotificationType = "content_approved"
	NotificationTypeContentRejected    NotificationType = "content_rejected"
	NotificationTypeClaimConfirmed     NotificationType = "claim_confirmed"
	NotificationTypePurchaseConfirmed  NotificationType = "purchase_confirmed"
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeContentApproved,
	NotificationTypeContentRejected,
	NotificationTypeClaimConfirmed,
	NotificationTypePurchaseConfirmed,
	NotificationTypeSystemAnnouncement,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
