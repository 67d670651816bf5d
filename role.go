package chatstream

// Role represents the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// OpenMarker returns the marker that opens a turn of this role in a prompt.
func (r Role) OpenMarker() string {
	if r == RoleAssistant {
		return MarkerAssistantOpen
	}
	return MarkerUserOpen
}

// CloseMarker returns the marker that closes a turn of this role.
func (r Role) CloseMarker() string {
	if r == RoleAssistant {
		return MarkerAssistantClose
	}
	return MarkerUserClose
}
