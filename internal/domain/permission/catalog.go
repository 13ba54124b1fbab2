// Package permission holds the static permission catalog and the
// role-to-permission mapping that administrators edit at runtime.
package permission

import (
	"fmt"
	"strings"

	vo "github.com/inventra-labs/gatekeeper/internal/domain/permission/value_objects"
)

// Permission is a catalog entry of the form "resource:action".
type Permission string

func newPermission(resource vo.Resource, action vo.Action) Permission {
	return Permission(resource.String() + ":" + action.String())
}

func (p Permission) String() string {
	return string(p)
}

// Split returns the resource and action halves. Malformed values yield an error.
func (p Permission) Split() (vo.Resource, vo.Action, error) {
	resource, action, ok := strings.Cut(string(p), ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return "", "", fmt.Errorf("malformed permission %q, expected resource:action", p)
	}
	r, err := vo.NewResource(resource)
	if err != nil {
		return "", "", err
	}
	a, err := vo.NewAction(action)
	if err != nil {
		return "", "", err
	}
	return r, a, nil
}

// Category groups related permissions for display.
type Category struct {
	Name        string
	Permissions []Permission
}

var (
	ProductCreate  = newPermission(vo.ResourceProduct, vo.ActionCreate)
	ProductRead    = newPermission(vo.ResourceProduct, vo.ActionRead)
	ProductUpdate  = newPermission(vo.ResourceProduct, vo.ActionUpdate)
	ProductDelete  = newPermission(vo.ResourceProduct, vo.ActionDelete)
	CategoryCreate = newPermission(vo.ResourceCategory, vo.ActionCreate)
	CategoryRead   = newPermission(vo.ResourceCategory, vo.ActionRead)
	CategoryUpdate = newPermission(vo.ResourceCategory, vo.ActionUpdate)
	CategoryDelete = newPermission(vo.ResourceCategory, vo.ActionDelete)

	OrderRead   = newPermission(vo.ResourceOrder, vo.ActionRead)
	OrderUpdate = newPermission(vo.ResourceOrder, vo.ActionUpdate)
	OrderCancel = newPermission(vo.ResourceOrder, vo.ActionCancel)
	OrderRefund = newPermission(vo.ResourceOrder, vo.ActionRefund)

	LotCreate = newPermission(vo.ResourceLot, vo.ActionCreate)
	LotRead   = newPermission(vo.ResourceLot, vo.ActionRead)
	LotUpdate = newPermission(vo.ResourceLot, vo.ActionUpdate)
	LotDelete = newPermission(vo.ResourceLot, vo.ActionDelete)

	UserCreate       = newPermission(vo.ResourceUser, vo.ActionCreate)
	UserRead         = newPermission(vo.ResourceUser, vo.ActionRead)
	UserUpdate       = newPermission(vo.ResourceUser, vo.ActionUpdate)
	UserDelete       = newPermission(vo.ResourceUser, vo.ActionDelete)
	RoleRead         = newPermission(vo.ResourceRole, vo.ActionRead)
	RoleAssign       = newPermission(vo.ResourceRole, vo.ActionAssign)
	PermissionRead   = newPermission(vo.ResourcePermission, vo.ActionRead)
	PermissionManage = newPermission(vo.ResourcePermission, vo.ActionManage)

	AnalyticsRead   = newPermission(vo.ResourceAnalytics, vo.ActionRead)
	AnalyticsExport = newPermission(vo.ResourceAnalytics, vo.ActionExport)
)

var categories = []Category{
	{Name: "catalog", Permissions: []Permission{
		ProductCreate, ProductRead, ProductUpdate, ProductDelete,
		CategoryCreate, CategoryRead, CategoryUpdate, CategoryDelete,
	}},
	{Name: "sales", Permissions: []Permission{OrderRead, OrderUpdate, OrderCancel, OrderRefund}},
	{Name: "inventory", Permissions: []Permission{LotCreate, LotRead, LotUpdate, LotDelete}},
	{Name: "access", Permissions: []Permission{
		UserCreate, UserRead, UserUpdate, UserDelete,
		RoleRead, RoleAssign, PermissionRead, PermissionManage,
	}},
	{Name: "reporting", Permissions: []Permission{AnalyticsRead, AnalyticsExport}},
}

var known = func() map[Permission]struct{} {
	m := make(map[Permission]struct{})
	for _, c := range categories {
		for _, p := range c.Permissions {
			m[p] = struct{}{}
		}
	}
	return m
}()

// Categories returns a copy of the grouped catalog.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		out[i] = Category{Name: c.Name, Permissions: append([]Permission(nil), c.Permissions...)}
	}
	return out
}

// Catalog returns every permission in catalog order.
func Catalog() []Permission {
	out := make([]Permission, 0, len(known))
	for _, c := range categories {
		out = append(out, c.Permissions...)
	}
	return out
}

// IsKnown reports whether p is part of the compiled catalog.
func IsKnown(p Permission) bool {
	_, ok := known[p]
	return ok
}

// Validate checks that every entry is a known catalog permission.
func Validate(perms []Permission) error {
	var unknown []string
	for _, p := range perms {
		if !IsKnown(p) {
			unknown = append(unknown, string(p))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown permissions: %s", strings.Join(unknown, ", "))
	}
	return nil
}
