package v1

import (
	ez_uuid "github.com/tallyplan/backend/internal/uuid"
)

type URIID struct {
	ID ez_uuid.UUID `uri:"id" binding:"required" format:"UUID"` // ID of the resource
}

type URIItemID struct {
	URIID
	ItemID ez_uuid.UUID `uri:"itemId" binding:"required" format:"UUID"` // ID of the schedule item
}
