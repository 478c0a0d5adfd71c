package usecases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

func TestIdentityTable_Resolve(t *testing.T) {
	tests := []struct {
		name         string
		tenant       string
		namespace    string
		wantTenant   string
		wantRegistry string
		wantErr      error
	}{
		{
			name:         "internal tenant and namespace",
			tenant:       "internal",
			namespace:    "internal",
			wantTenant:   "internal",
			wantRegistry: "cr.ilharper.com",
		},
		{
			name:      "unknown tenant",
			tenant:    "acme",
			namespace: "internal",
			wantErr:   domain.ErrUnknownTenant,
		},
		{
			name:      "unknown namespace",
			tenant:    "internal",
			namespace: "dockerhub",
			wantErr:   domain.ErrUnknownNamespace,
		},
		{
			name:      "tenant checked before namespace",
			tenant:    "acme",
			namespace: "dockerhub",
			wantErr:   domain.ErrUnknownTenant,
		},
		{
			name:      "lookup is case sensitive",
			tenant:    "Internal",
			namespace: "internal",
			wantErr:   domain.ErrUnknownTenant,
		},
		{
			name:      "empty values are unknown",
			tenant:    "",
			namespace: "",
			wantErr:   domain.ErrUnknownTenant,
		},
	}

	table := DefaultIdentityTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Resolve(tt.tenant, tt.namespace)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTenant, got.Tenant)
			assert.Equal(t, tt.wantRegistry, got.RegistryHost)
		})
	}
}

func TestIdentityTable_ErrorNamesValue(t *testing.T) {
	_, err := DefaultIdentityTable().Resolve("acme", "internal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"acme"`)

	_, err = DefaultIdentityTable().Resolve("internal", "dockerhub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"dockerhub"`)
}

func TestIdentityTable_Extensible(t *testing.T) {
	table := DefaultIdentityTable()
	table.Tenants["acme"] = "acme-corp"
	table.Registries["acme"] = "registry.acme.test"

	got, err := table.Resolve("acme", "acme")
	require.NoError(t, err)
	assert.Equal(t, &domain.ResolvedIdentity{Tenant: "acme-corp", RegistryHost: "registry.acme.test"}, got)

	// The default table is not shared between callers
	_, err = DefaultIdentityTable().Resolve("acme", "acme")
	assert.ErrorIs(t, err, domain.ErrUnknownTenant)
}
