package lifecycle

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// User attribute keys the partner mapping reads.
const (
	AttributeTenantType = "tenant_type"
	AttributeIsISV      = "isISV"
)

// Recognized tenant types.
const (
	TenantTypeBank     = "BANK"
	TenantTypeMerchant = "MERCHANT"
)

// Partner group names, keyed by tenant profile.
const (
	GroupPartnerPaymentInstitutions = "payware-partners-payment-institutions"
	GroupPartnerMerchants           = "payware-partners-merchants"
	GroupPartnerISVs                = "payware-partners-isvs"
)

// ResolvePartnerGroup maps a user's attribute set to its partner group
// name. The second return is false when no mapping applies: tenant_type
// absent or unrecognized.
//
//	BANK                    -> payware-partners-payment-institutions
//	MERCHANT + isISV=true   -> payware-partners-isvs
//	MERCHANT (isISV absent or false) -> payware-partners-merchants
func ResolvePartnerGroup(attrs map[string]any) (string, bool) {
	tenantType, _ := attrs[AttributeTenantType].(string)
	switch tenantType {
	case TenantTypeBank:
		return GroupPartnerPaymentInstitutions, true
	case TenantTypeMerchant:
		if isISV, _ := attrs[AttributeIsISV].(bool); isISV {
			return GroupPartnerISVs, true
		}
		return GroupPartnerMerchants, true
	default:
		return "", false
	}
}

// assignPartnerGroup places newly created users into their partner group.
// Configuration gaps (unknown tenant type, missing target group) are
// logged and skipped; repository failures are returned classified so the
// dispatcher logs them, and the enclosing user write is never affected.
func assignPartnerGroup(deps CoreRuleDeps) func(ctx context.Context, evt *Event) error {
	return func(ctx context.Context, evt *Event) error {
		if !evt.Created {
			return nil
		}
		user, ok := evt.Entity.(*User)
		if !ok {
			return nil
		}

		tenantType := user.Attribute(AttributeTenantType)
		if tenantType == nil || tenantType == "" {
			return nil
		}

		groupName, ok := ResolvePartnerGroup(user.Attributes)
		if !ok {
			deps.Logger.Debug(
				"unknown tenant_type, skipping group assignment: tenant_type=%v user=%s",
				tenantType, user.Username,
			)
			return nil
		}

		group, err := deps.Repos.Groups().GetByName(ctx, groupName)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				deps.Logger.Warn(
					"partner group not found, skipping assignment: group=%s user=%s",
					groupName, user.Username,
				)
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryOperation, "partner group lookup failed")
		}

		member, err := deps.Repos.Groups().IsMember(ctx, user.ID, group.ID)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "partner group membership check failed")
		}
		if member {
			deps.Logger.Debug("user already in group: user=%s group=%s", user.Username, groupName)
			return nil
		}

		err = deps.Repos.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			return deps.Repos.Groups().AddMemberTx(ctx, tx, user.ID, group.ID)
		})
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "partner group membership write failed")
		}

		deps.Logger.Info(
			"assigned user to partner group: user=%s group=%s tenant_type=%v is_isv=%v",
			user.Username, groupName, tenantType, user.Attribute(AttributeIsISV),
		)
		return nil
	}
}
