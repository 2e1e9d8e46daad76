package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPermissionSet(t *testing.T) {
	tests := []struct {
		name        string
		grants      map[Section][]Action
		wantErr     bool
		errContains string
		wantTotal   int
	}{
		{
			name: "valid single section",
			grants: map[Section][]Action{
				SectionClients: {ActionView, ActionCreate},
			},
			wantTotal: 2,
		},
		{
			name: "duplicates collapsed",
			grants: map[Section][]Action{
				SectionCosts: {ActionView, ActionView, ActionUpdate},
			},
			wantTotal: 2,
		},
		{
			name: "empty section normalized away",
			grants: map[Section][]Action{
				SectionClients:   {ActionView},
				SectionSuppliers: {},
			},
			wantTotal: 1,
		},
		{
			name: "unknown section rejected",
			grants: map[Section][]Action{
				Section("warehouse"): {ActionView},
			},
			wantErr:     true,
			errContains: "Unknown permission section",
		},
		{
			name: "unsupported action rejected",
			grants: map[Section][]Action{
				SectionSettings: {ActionDelete},
			},
			wantErr:     true,
			errContains: "does not support action",
		},
		{
			name: "upload only supported on documents",
			grants: map[Section][]Action{
				SectionClients: {ActionUpload},
			},
			wantErr:     true,
			errContains: "does not support action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := NewPermissionSet(tt.grants)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, ps)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, ps.TotalGrants())
			}
		})
	}
}

func TestPermissionSetNormalizesEmptySectionByOmission(t *testing.T) {
	ps, err := NewPermissionSet(map[Section][]Action{
		SectionClients: {},
	})
	require.NoError(t, err)

	_, present := ps[SectionClients]
	assert.False(t, present)
	assert.True(t, ps.IsEmpty())
}

func TestPermissionSetAllows(t *testing.T) {
	ps, err := NewPermissionSet(map[Section][]Action{
		SectionCosts:     {ActionView, ActionUpdate},
		SectionDocuments: {ActionUpload},
	})
	require.NoError(t, err)

	assert.True(t, ps.Allows(SectionCosts, ActionView))
	assert.True(t, ps.Allows(SectionCosts, ActionUpdate))
	assert.True(t, ps.Allows(SectionDocuments, ActionUpload))

	// Absent pairs deny.
	assert.False(t, ps.Allows(SectionCosts, ActionDelete))
	assert.False(t, ps.Allows(SectionClients, ActionView))
	assert.False(t, ps.Allows(Section("warehouse"), ActionView))
}

func TestPermissionSetCloneIsIndependent(t *testing.T) {
	ps, err := NewPermissionSet(map[Section][]Action{
		SectionClients: {ActionView},
	})
	require.NoError(t, err)

	clone := ps.Clone()
	clone[SectionClients] = append(clone[SectionClients], ActionDelete)

	assert.False(t, ps.Allows(SectionClients, ActionDelete))
	assert.True(t, clone.Allows(SectionClients, ActionDelete))
}

func TestSectionSupports(t *testing.T) {
	assert.True(t, SectionDocuments.Supports(ActionUpload))
	assert.False(t, SectionInvoicing.Supports(ActionUpload))
	assert.True(t, SectionSettings.Supports(ActionUpdate))
	assert.False(t, SectionSettings.Supports(ActionCreate))
	assert.False(t, Section("nope").Supports(ActionView))
}

func TestAllSectionsIsClosedVocabulary(t *testing.T) {
	sections := AllSections()
	assert.Len(t, sections, 11)
	for _, s := range sections {
		assert.True(t, s.IsValid())
		assert.NotEmpty(t, s.SupportedActions())
	}
}
