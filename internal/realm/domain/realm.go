package domain

import (
	"errors"
	"strings"
)

// Realm is one of the two disjoint authentication universes.
type Realm string

const (
	RealmPlatform Realm = "platform"
	RealmTenant   Realm = "tenant"
)

var ErrUnknownRealm = errors.New("domain: unknown realm")

// ParseRealm maps a path segment or stored tag to a Realm.
func ParseRealm(s string) (Realm, error) {
	switch Realm(strings.ToLower(strings.TrimSpace(s))) {
	case RealmPlatform:
		return RealmPlatform, nil
	case RealmTenant:
		return RealmTenant, nil
	default:
		return "", ErrUnknownRealm
	}
}

func (r Realm) String() string { return string(r) }

func (r Realm) Valid() bool { return r == RealmPlatform || r == RealmTenant }
