// Package projection builds display-side views from store records.
// Handles ordering and partitioning; does not write anything back.
package projection

import (
	"clipchat/domain"

	"github.com/samber/lo"
)

// RoomView is an identity's membership list split for display: rooms it
// created and rooms it joined, both in record order. Partitioning is the
// caller-side duty the membership store leaves open.
type RoomView struct {
	Created []domain.Membership
	Joined  []domain.Membership
}

func PartitionRooms(memberships []domain.Membership) RoomView {
	created, joined := lo.FilterReject(memberships, func(m domain.Membership, _ int) bool {
		return m.Role == domain.RoleCreated
	})
	return RoomView{Created: created, Joined: joined}
}
