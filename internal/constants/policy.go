package constants

const (
	// DefaultTrophyThreshold is the best streak that auto-promotes a habit to the trophy gallery.
	DefaultTrophyThreshold = 7

	// DefaultTimezone uses the system local timezone.
	DefaultTimezone = "Local"

	// DefaultRefreshTime is when the daemon recomputes cached streaks.
	DefaultRefreshTime = "00:00"

	// Config keys
	SettingStorage         = "storage"
	SettingTimezone        = "timezone"
	SettingMilestones      = "milestones"
	SettingTrophyThreshold = "trophy_threshold"
	SettingRefreshTime     = "refresh_time"
	SettingDebug           = "debug"
)

// DefaultMilestones returns the streak lengths that earn an achievement, ascending.
// A fresh slice is returned so callers can't mutate the defaults.
func DefaultMilestones() []int {
	return []int{7, 14, 30, 60, 100, 365}
}
