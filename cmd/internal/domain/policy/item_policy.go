package policy

import (
	"studynotes/cmd/internal/domain/entity"
	"studynotes/cmd/internal/utils/apierror"
)

// ItemPolicy encapsulates the ownership rules shared by subjects and notes.
// Read access is decided elsewhere (it needs share lookups); everything that
// mutates an item is owner-only and lands here.
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
type ItemPolicy struct{}

func NewItemPolicy() *ItemPolicy {
	return &ItemPolicy{}
}

func (p *ItemPolicy) CanModify(owner string, actor *entity.User) apierror.ErrorResponse {
	if owner != actor.UID {
		return apierror.NewForbiddenError("You don't have permission to modify this item")
	}
	return nil
}

func (p *ItemPolicy) CanShare(owner string, actor *entity.User) apierror.ErrorResponse {
	if owner != actor.UID {
		return apierror.NewForbiddenError("You don't have permission to share this item")
	}
	return nil
}

func (p *ItemPolicy) CanTag(owner string, actor *entity.User) apierror.ErrorResponse {
	// Read access via sharing is not enough to tag someone else's note.
	if owner != actor.UID {
		return apierror.NewForbiddenError("You don't have permission to tag this note")
	}
	return nil
}

func (p *ItemPolicy) CanUnshare(sharedBy string, actor *entity.User) apierror.ErrorResponse {
	if sharedBy != actor.UID {
		return apierror.NewForbiddenError("You don't have permission to remove this share")
	}
	return nil
}
