package api

const (
	// SummaryMessageLimit is how many channel messages !summarize condenses.
	SummaryMessageLimit = 10

	// unreadFetchLimit bounds the fresh history fetch behind !summarize_unread.
	unreadFetchLimit = 50

	noUnreadMessage        = "No unread messages to summarize."
	archiveDisabledMessage = "The mod-log digest is not available: archiving is disabled."
	modlogUsageMessage     = "Usage: !modlog <channel id>"
	modlogAdminOnlyMessage = "Only a server administrator can set the digest channel."
)
