package dispatch

// Reply texts shown to callers.
const (
	MsgUnsupported    = "Unsupported interaction type."
	MsgDirectMessage  = "Please DM me to use this."
	MsgMissingUser    = "Missing user information."
	MsgUnknownCommand = "Unknown command."
	MsgSaveFailed     = "Failed to save birthday. Please try again."
	MsgFetchFailed    = "Failed to fetch birthdays. Please try again."
	MsgRemoveFailed   = "Failed to remove birthday. Please try again."
	MsgNoBirthdays    = "No birthdays saved."
	MsgListHeader     = "Your saved birthdays:"
	msgSavedFormat    = "Saved %s's birthday as %s."
	msgNotFoundFormat = "No birthday found for %s."
	msgRemovedFormat  = "Removed %s's birthday."
)
