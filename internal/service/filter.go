package service

import (
	"fmt"

	"github.com/RPwnage/EA-Software-sub002/internal/errs"
	"github.com/RPwnage/EA-Software-sub002/internal/model"
)

// filterForCaller produces the caller's response view: always a deep copy of
// the stored record, and for large sessions the member list is reduced to at
// most the caller's own record under the "me" key.
func filterForCaller(sess *model.Session, caller model.Caller) (*model.Session, error) {
	if sess == nil {
		return nil, nil
	}
	if sess.IsLarge() && len(caller.OnBehalfOf) > 1 {
		return nil, fmt.Errorf("multiple on-behalf-of identities: %w", errs.ErrForbidden)
	}
	cp := sess.Clone()
	if cp == nil {
		return nil, fmt.Errorf("cloning session: %w", errs.ErrInternal)
	}
	if !sess.IsLarge() || cp.Members == nil {
		return cp, nil
	}

	xuid := caller.BearerXuid
	if len(caller.OnBehalfOf) == 1 {
		xuid = caller.OnBehalfOf[0]
	}
	all := cp.Members
	cp.Members = map[string]*model.Member{}
	for _, member := range all {
		if xuid != "" && member.Xuid() == xuid {
			cp.Members[model.MemberKeyMe] = member
			break
		}
	}
	return cp, nil
}
