package authz

import (
	"github.com/google/uuid"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/enums"
	pkgerrors "github.com/soundleaf/soundleaf-backend/pkg/errors"
)

// Actor is the authenticated identity attached to a request.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// Owns reports whether the actor created the content item.
func (a Actor) Owns(item *models.ContentItem) bool {
	if item == nil || a.UserID == uuid.Nil {
		return false
	}
	return item.CreatorID == a.UserID
}

// ReadInput drives the shared read checks for catalog-facing queries.
type ReadInput struct {
	Actor          Actor
	Item           *models.ContentItem
	HasEntitlement bool
}

// CanRead reports whether the actor may see the content item: approved items
// are public, everything else requires an entitlement, ownership, or the
// admin role. Entitlements outlive status changes, so an entitled listener
// keeps access to items that were later archived or pulled back for review.
func CanRead(input ReadInput) bool {
	if input.Item == nil {
		return false
	}
	if input.Item.Status == enums.ContentStatusApproved {
		return true
	}
	if input.HasEntitlement {
		return true
	}
	if input.Actor.Owns(input.Item) {
		return true
	}
	return input.Actor.IsAdmin()
}

// EnsureReadable returns nil or a NOT_FOUND error. Denials never reveal that
// a hidden item exists.
func EnsureReadable(input ReadInput) error {
	if CanRead(input) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
}

// CanWrite reports whether the actor may mutate the content item.
func CanWrite(actor Actor, item *models.ContentItem) bool {
	if item == nil {
		return false
	}
	return actor.Owns(item) || actor.IsAdmin()
}

// EnsureWritable masks items the actor cannot even read as NOT_FOUND;
// readable-but-unowned items come back FORBIDDEN because their existence is
// already public.
func EnsureWritable(actor Actor, item *models.ContentItem) error {
	if CanWrite(actor, item) {
		return nil
	}
	if CanRead(ReadInput{Actor: actor, Item: item}) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not the content owner")
	}
	return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
}

// StreamInput drives the chapter streaming checks.
type StreamInput struct {
	Actor          Actor
	Item           *models.ContentItem
	Chapter        *models.Chapter
	HasEntitlement bool
}

// CanStream reports whether the actor may fetch a playback URL for the
// chapter. Preview chapters stream without an entitlement, but only once the
// parent item is approved.
func CanStream(input StreamInput) bool {
	if input.Item == nil || input.Chapter == nil {
		return false
	}
	if input.HasEntitlement {
		return true
	}
	if input.Actor.Owns(input.Item) || input.Actor.IsAdmin() {
		return true
	}
	return input.Chapter.IsPreview && input.Item.Status == enums.ContentStatusApproved
}

// EnsureStreamable returns nil or a masked denial: NOT_FOUND when the actor
// cannot see the item at all, FORBIDDEN when the item is visible but the
// chapter is locked behind an entitlement.
func EnsureStreamable(input StreamInput) error {
	if CanStream(input) {
		return nil
	}
	if !CanRead(ReadInput{Actor: input.Actor, Item: input.Item, HasEntitlement: input.HasEntitlement}) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "content not found")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "chapter requires an entitlement")
}
