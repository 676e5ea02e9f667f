package vectorstore

import "strings"

const DefaultCollectionPrefix = "multimodal_rag_"

// Scope selects the corpus a collection belongs to.
type Scope struct {
	Global   bool
	Username string
	UserID   string
}

func GlobalScope() Scope {
	return Scope{Global: true}
}

func UserScope(username, userID string) Scope {
	return Scope{Username: username, UserID: userID}
}

// CollectionName derives the collection for a scope: <prefix>admin or
// <prefix>user_<username>_<id>.
func CollectionName(prefix string, scope Scope) string {
	if scope.Global {
		return prefix + "admin"
	}
	return prefix + "user_" + sanitize(scope.Username) + "_" + sanitize(scope.UserID)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
