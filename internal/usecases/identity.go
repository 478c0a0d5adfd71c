package usecases

import (
	"fmt"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// IdentityTable is the allow-list of deployable tenants and registry namespaces.
// Values not present in the table are rejected rather than passed through, so a
// typo in strdeploy.yml can never push to an unintended registry.
type IdentityTable struct {
	// Tenants maps a declared tenant to its canonical identity.
	Tenants map[string]string

	// Registries maps a declared namespace to the registry host receiving images.
	Registries map[string]string
}

// DefaultIdentityTable returns the built-in tenant and registry mapping.
func DefaultIdentityTable() *IdentityTable {
	return &IdentityTable{
		Tenants: map[string]string{
			"internal": "internal",
		},
		Registries: map[string]string{
			"internal": "cr.ilharper.com",
		},
	}
}

// Resolve implements domain.IdentityResolver. The tenant is checked first.
func (t *IdentityTable) Resolve(tenant, namespace string) (*domain.ResolvedIdentity, error) {
	canonical, ok := t.Tenants[tenant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTenant, tenant)
	}

	registry, ok := t.Registries[namespace]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNamespace, namespace)
	}

	return &domain.ResolvedIdentity{
		Tenant:       canonical,
		RegistryHost: registry,
	}, nil
}
