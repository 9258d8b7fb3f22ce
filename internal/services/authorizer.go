package services

import "github.com/rs/zerolog/log"

// Authorizer decides whether an operator in a group may use the bot.
//
// Enforcement is currently switched off: every update is allowed and the
// configured allow-lists are only logged when they would have denied.
// The lists are still parsed and carried so turning enforcement on is a
// single flag, not a code change.
type Authorizer struct {
	// Operators and Groups are the allow-lists; nil or empty means
	// everyone, respectively every group.
	Operators map[int64]struct{}
	Groups    map[int64]struct{}

	// Enforce activates the lists. Off by default.
	Enforce bool
}

// NewAuthorizer builds an Authorizer from raw id slices.
func NewAuthorizer(operatorIDs, groupIDs []int64, enforce bool) *Authorizer {
	a := &Authorizer{Enforce: enforce}
	if len(operatorIDs) > 0 {
		a.Operators = make(map[int64]struct{}, len(operatorIDs))
		for _, id := range operatorIDs {
			a.Operators[id] = struct{}{}
		}
	}
	if len(groupIDs) > 0 {
		a.Groups = make(map[int64]struct{}, len(groupIDs))
		for _, id := range groupIDs {
			a.Groups[id] = struct{}{}
		}
	}
	return a
}

// Allow reports whether the update may proceed.
func (a *Authorizer) Allow(groupID, operatorID int64) bool {
	if a == nil {
		return true
	}
	listed := a.listed(groupID, operatorID)
	if !listed && !a.Enforce {
		log.Debug().Int64("group_id", groupID).Int64("operator_id", operatorID).
			Msg("unlisted operator allowed, enforcement off")
		return true
	}
	return listed || !a.Enforce
}

func (a *Authorizer) listed(groupID, operatorID int64) bool {
	if a.Operators != nil {
		if _, ok := a.Operators[operatorID]; !ok {
			return false
		}
	}
	if a.Groups != nil {
		if _, ok := a.Groups[groupID]; !ok {
			return false
		}
	}
	return true
}
