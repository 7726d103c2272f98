package services

import (
	"fmt"

	"marketplace-service/models"
)

// TransitionKind is the shape of a requested status change, independent of
// who asks for it.
type TransitionKind string

const (
	// TransitionAdvance moves to the next status on the fulfillment path.
	TransitionAdvance TransitionKind = "advance"
	// TransitionSkip is any other move along the path, forward or back.
	TransitionSkip TransitionKind = "skip"
	// TransitionCancel cancels an order that has not left the kitchen.
	TransitionCancel TransitionKind = "cancel"
	// TransitionCancelInDelivery cancels an order that is out for delivery.
	TransitionCancelInDelivery TransitionKind = "cancel_in_delivery"
)

func ClassifyTransition(from, to models.OrderStatus) TransitionKind {
	if to == models.OrderStatusCancelled {
		if from == models.OrderStatusOutForDelivery {
			return TransitionCancelInDelivery
		}
		return TransitionCancel
	}
	if pos := from.Position(); pos >= 0 && to.Position() == pos+1 {
		return TransitionAdvance
	}
	return TransitionSkip
}

type permissionKey struct {
	role  models.Role
	kind  TransitionKind
	owner bool
}

// transitionPermissions decides who may request which kind of transition.
// Anything not listed is forbidden. Whether an allowed request is legal from
// the order's current status is decided separately by CheckTransition.
var transitionPermissions = map[permissionKey]bool{
	{models.RoleCustomer, TransitionCancel, true}: true,

	{models.RoleSeller, TransitionAdvance, true}:          true,
	{models.RoleSeller, TransitionSkip, true}:             true,
	{models.RoleSeller, TransitionCancel, true}:           true,
	{models.RoleSeller, TransitionCancelInDelivery, true}: true,

	{models.RoleAdmin, TransitionAdvance, true}:           true,
	{models.RoleAdmin, TransitionAdvance, false}:          true,
	{models.RoleAdmin, TransitionSkip, true}:              true,
	{models.RoleAdmin, TransitionSkip, false}:             true,
	{models.RoleAdmin, TransitionCancel, true}:            true,
	{models.RoleAdmin, TransitionCancel, false}:           true,
	{models.RoleAdmin, TransitionCancelInDelivery, true}:  true,
	{models.RoleAdmin, TransitionCancelInDelivery, false}: true,
}

// deletePermissions follows the cancellation ownership rule for sellers.
var deletePermissions = map[permissionKey]bool{
	{role: models.RoleSeller, owner: true}: true,
	{role: models.RoleAdmin, owner: true}:  true,
	{role: models.RoleAdmin, owner: false}: true,
}

func CanTransition(role models.Role, kind TransitionKind, owner bool) bool {
	return transitionPermissions[permissionKey{role, kind, owner}]
}

func CanDelete(role models.Role, owner bool) bool {
	return deletePermissions[permissionKey{role: role, owner: owner}]
}

// ResolveActor decides in which capacity p acts on o. An admin always acts as
// admin. Otherwise the order's seller acts as seller and its customer as
// customer; anyone else is a non-owner in their strongest role.
func ResolveActor(p models.Principal, o *models.Order) (models.Role, bool) {
	switch {
	case p.IsAdmin():
		return models.RoleAdmin, true
	case o.SellerID == p.UserID:
		return models.RoleSeller, true
	case o.CustomerID == p.UserID:
		return models.RoleCustomer, true
	case p.HasRole(models.RoleSeller):
		return models.RoleSeller, false
	default:
		return models.RoleCustomer, false
	}
}

// CheckTransition reports whether moving from `from` to `to` is legal.
// allowSkip lifts the linear ordering rule.
func CheckTransition(from, to models.OrderStatus, allowSkip bool) *ServiceError {
	if from.IsTerminal() {
		return newInvalidState(CodeAlreadyFinalized, fmt.Sprintf("Order is already %s", from))
	}
	if from == to {
		return newInvalidState(CodeWrongStatus, fmt.Sprintf("Order is already %s", to))
	}
	if ClassifyTransition(from, to) == TransitionSkip && !allowSkip {
		return newInvalidState(CodeInvalidTransition, fmt.Sprintf("Cannot move order from %s to %s", from, to))
	}
	return nil
}
