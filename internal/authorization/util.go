// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"github.com/canonical/customer-portal/internal/types"
)

const (
	SUPER_ADMIN_RELATION   = "super_admin"
	ACCOUNT_ADMIN_RELATION = "account_admin"
	ACCOUNT_USER_RELATION  = "account_user"

	// GLOBAL_PLATFORM is the single platform object super admins are
	// attached to.
	GLOBAL_PLATFORM = "global"
)

func UserTuple(userId string) string {
	return "user:" + userId
}

func AccountTuple(accountId string) string {
	return "account:" + accountId
}

func PlatformTuple(platformId string) string {
	return "platform:" + platformId
}

// roleTuple returns the relation and object a role grant is stored as.
func roleTuple(accountID string, role types.AppRole) (string, string) {
	switch role {
	case types.RoleSuperAdmin:
		return SUPER_ADMIN_RELATION, PlatformTuple(GLOBAL_PLATFORM)
	case types.RoleAccountAdmin:
		return ACCOUNT_ADMIN_RELATION, AccountTuple(accountID)
	default:
		return ACCOUNT_USER_RELATION, AccountTuple(accountID)
	}
}
