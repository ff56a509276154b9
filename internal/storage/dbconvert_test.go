package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchantdir/internal/models"
)

func TestMerchantDocument_UsesPublishedFieldNames(t *testing.T) {
	doc, err := marshalMerchant(testMerchant("alpha"))
	require.NoError(t, err)

	assert.Contains(t, doc, `"ucpProfile":`)
	assert.Contains(t, doc, `"wellKnownUrl":"https://alpha.example/.well-known/ucp"`)
	assert.Contains(t, doc, `"paymentHandlers":`)

	m, err := unmarshalMerchant([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, testMerchant("alpha"), m)
}

func TestUnmarshalMerchant_Invalid(t *testing.T) {
	_, err := unmarshalMerchant([]byte(`{"slug": 1`))
	assert.Error(t, err)
}

func TestUnmarshalMetadata_Empty(t *testing.T) {
	meta, err := unmarshalMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, models.DirectoryMetadata{}, meta)

	_, err = unmarshalMetadata([]byte(`[`))
	assert.Error(t, err)
}
