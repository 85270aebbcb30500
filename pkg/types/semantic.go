// Package types holds types shared across the logpress packages and
// exposed to callers: semantic slot types, compression statistics, and
// query results.
package types

// SemanticType is the closed set of semantic types a slot can carry.
// Classification is pattern based; UNKNOWN is a valid terminal type,
// not an error.
type SemanticType string

const (
	TypeTimestamp SemanticType = "TIMESTAMP"
	TypeSeverity  SemanticType = "SEVERITY"
	TypeIPAddress SemanticType = "IP_ADDRESS"
	TypePort      SemanticType = "PORT"
	TypeURL       SemanticType = "URL"
	TypeEmail     SemanticType = "EMAIL"
	TypeUserID    SemanticType = "USER_ID"
	TypeProcessID SemanticType = "PROCESS_ID"
	TypeErrorCode SemanticType = "ERROR_CODE"
	TypeStatus    SemanticType = "STATUS"
	TypeHost      SemanticType = "HOST"
	TypePath      SemanticType = "PATH"
	TypeMetric    SemanticType = "METRIC"
	TypeMessage   SemanticType = "MESSAGE"
	TypeUnknown   SemanticType = "UNKNOWN"
)

// Valid reports whether t is one of the declared semantic types.
func (t SemanticType) Valid() bool {
	switch t {
	case TypeTimestamp, TypeSeverity, TypeIPAddress, TypePort, TypeURL,
		TypeEmail, TypeUserID, TypeProcessID, TypeErrorCode, TypeStatus,
		TypeHost, TypePath, TypeMetric, TypeMessage, TypeUnknown:
		return true
	}
	return false
}
