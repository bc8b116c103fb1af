package mediagate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagate"
)

func TestPolicyTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(mediagate.PolicyTable)
		wantErr string
	}{
		{
			name:   "default table is valid",
			mutate: func(mediagate.PolicyTable) {},
		},
		{
			name:    "missing category",
			mutate:  func(t mediagate.PolicyTable) { delete(t, mediagate.CategoryVideo) },
			wantErr: "missing category",
		},
		{
			name: "empty directive",
			mutate: func(t mediagate.PolicyTable) {
				t[mediagate.CategoryImage] = mediagate.CachePolicy{Cacheable: true}
			},
			wantErr: "empty cache-control",
		},
		{
			name: "unknown category",
			mutate: func(t mediagate.PolicyTable) {
				t["audio"] = mediagate.CachePolicy{CacheControl: "no-store"}
			},
			wantErr: "unknown category",
		},
		{
			name: "cacheable opaque",
			mutate: func(t mediagate.PolicyTable) {
				t[mediagate.CategoryOpaque] = mediagate.CachePolicy{CacheControl: "no-store", Cacheable: true}
			},
			wantErr: "opaque category cannot be cacheable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := mediagate.DefaultPolicies()
			tt.mutate(table)

			err := table.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewCacheGateway_RejectsBadTable(t *testing.T) {
	table := mediagate.DefaultPolicies()
	delete(table, mediagate.CategoryImage)

	_, err := mediagate.NewCacheGateway(table)
	assert.Error(t, err)
}

func TestCategory_IsValid(t *testing.T) {
	assert.True(t, mediagate.CategoryImage.IsValid())
	assert.True(t, mediagate.CategoryVideo.IsValid())
	assert.True(t, mediagate.CategoryOpaque.IsValid())
	assert.False(t, mediagate.Category("audio").IsValid())
}
