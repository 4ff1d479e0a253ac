package docstore

import (
	"fmt"
	"strings"
)

// CollectionPath identifies one user's expense collection,
// rendered as <namespace>/<appID>/users/<userID>/expenses.
type CollectionPath struct {
	Namespace string
	AppID     string
	UserID    string
}

// UserExpenses builds the collection path for a user scope.
func UserExpenses(namespace, appID, userID string) CollectionPath {
	return CollectionPath{Namespace: namespace, AppID: appID, UserID: userID}
}

func (p CollectionPath) String() string {
	return p.Namespace + "/" + p.AppID + "/users/" + p.UserID + "/expenses"
}

func (p CollectionPath) Validate() error {
	for _, seg := range []struct{ name, v string }{
		{"namespace", p.Namespace},
		{"app id", p.AppID},
		{"user id", p.UserID},
	} {
		if strings.TrimSpace(seg.v) == "" {
			return fmt.Errorf("collection path: empty %s", seg.name)
		}
		if strings.Contains(seg.v, "/") {
			return fmt.Errorf("collection path: %s %q contains '/'", seg.name, seg.v)
		}
	}
	return nil
}

// ParseCollectionPath parses the wire form of a collection path.
func ParseCollectionPath(s string) (CollectionPath, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 5 || parts[2] != "users" || parts[4] != "expenses" {
		return CollectionPath{}, fmt.Errorf("malformed collection path %q", s)
	}
	p := CollectionPath{Namespace: parts[0], AppID: parts[1], UserID: parts[3]}
	if err := p.Validate(); err != nil {
		return CollectionPath{}, err
	}
	return p, nil
}
