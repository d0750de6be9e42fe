package cache

import (
	"fmt"
	"strings"
)

// OwnerKind scopes an owner id so a user id can never collide with a group id.
type OwnerKind string

const (
	OwnerUser   OwnerKind = "user"
	OwnerCouple OwnerKind = "couple"
	OwnerRoom   OwnerKind = "room"
	OwnerGroup  OwnerKind = "group"
)

// Owner is the entity whose data a cache entry was derived from.
// Invalidation works on owners, never on key substrings.
type Owner struct {
	Kind OwnerKind
	ID   string
}

func User(id string) Owner   { return Owner{Kind: OwnerUser, ID: id} }
func Couple(id string) Owner { return Owner{Kind: OwnerCouple, ID: id} }
func Room(id string) Owner   { return Owner{Kind: OwnerRoom, ID: id} }
func Group(id string) Owner  { return Owner{Kind: OwnerGroup, ID: id} }

// Tag is the index name of the owner.
func (o Owner) Tag() string {
	return string(o.Kind) + "/" + escape(o.ID)
}

// Key identifies one cached result: what was computed, for whom, and how many items.
type Key struct {
	Purpose string
	Owner   Owner
	Limit   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Purpose, k.Owner.Tag(), k.Limit)
}

// escape keeps ids from forging separators.
func escape(s string) string {
	return strings.NewReplacer("%", "%25", "|", "%7C", "/", "%2F").Replace(s)
}
