package models

// PermissionSetFinding is one over-broad action granted by an Identity
// Center permission set's inline policy. A statement naming several broad
// actions yields one finding per action.
type PermissionSetFinding struct {
	PermissionSet    string   `json:"permission_set"`
	PermissionSetARN string   `json:"permission_set_arn"`
	Action           string   `json:"action"`
	Effect           string   `json:"effect"`
	Resources        []string `json:"resources"`
}
