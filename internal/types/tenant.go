package types

// TenantContext identifies the tenant a request acts for. TenantID is never empty.
type TenantContext struct {
	TenantID string
}
