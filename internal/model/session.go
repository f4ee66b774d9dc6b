package model

// Session is the authenticated caller identity, validated once at the auth
// boundary and passed by value afterwards.
type Session struct {
	UserID             string `json:"userId"`
	DisplayName        string `json:"displayName"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Provider           string `json:"provider"`
	DefaultWorkspaceID string `json:"defaultWorkspaceId"`
}
